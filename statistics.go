package reversi

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// Statistics records the arena results of each generation of the best network.
type Statistics struct {
	Creation []string
	Wins     map[string][]float32
	Losses   map[string][]float32
	Draws    map[string][]float32
}

func makeStatistics() Statistics {
	return Statistics{
		Creation: make([]string, 0, 64),
		Wins:     make(map[string][]float32),
		Losses:   make(map[string][]float32),
		Draws:    make(map[string][]float32),
	}
}

func (s *Statistics) update(name string, A *Agent) {
	if _, ok := s.Wins[name]; !ok {
		s.Creation = append(s.Creation, name)
	}

	A.Lock()
	s.Wins[name] = append(s.Wins[name], A.Wins)
	s.Losses[name] = append(s.Losses[name], A.Loss)
	s.Draws[name] = append(s.Draws[name], A.Draw)
	A.Unlock()
}

// Dump writes one column per generation and one row per arena, holding the win rate of the generation in
// that arena. Draws count as half a win.
func (s *Statistics) Dump(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Creation); err != nil {
		return err
	}
	var records [][]string
	for i, agent := range s.Creation {
		for j, win := range s.Wins[agent] {
			record := make([]string, len(s.Creation))
			draw := s.Draws[agent][j]
			played := win + s.Losses[agent][j] + draw
			var winRate float32
			if played > 0 {
				winRate = (win + 0.5*draw) / played
			}
			record[i] = strconv.FormatFloat(float64(winRate), 'f', 3, 32)
			records = append(records, record)
		}
	}
	return cw.WriteAll(records)
}

// DumpFile dumps the statistics into the named file.
func (s *Statistics) DumpFile(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := s.Dump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
