package reversi

import (
	"io"

	dual "github.com/gorgonia/reversi/dualnet"
	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/mcts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Config struct {
	Name      string
	NNConf    dual.Config
	MCTSConf  mcts.Config // used to generate self-play examples
	ArenaConf mcts.Config // used when the candidate network plays the best one

	UpdateThreshold float64 // win rate the candidate needs to be promoted
	MaxExamples     int     // maximum number of examples
	Seed            int64

	// extensions
	Encoder       GameEncoder
	OutputEncoder OutputEncoder

	Logger zerolog.Logger
}

// DefaultConfig returns the configuration used to train on an m×n board.
func DefaultConfig(name string, m, n int) Config {
	arena := mcts.EvaluationConfig()
	arena.Budget = 400
	return Config{
		Name:            name,
		NNConf:          dual.DefaultConf(m, n, m*n+1),
		MCTSConf:        mcts.DefaultConfig(),
		ArenaConf:       arena,
		UpdateThreshold: 0.6,
		MaxExamples:     10000,
		Encoder:         PlaneEncoder,
		Logger:          zerolog.Nop(),
	}
}

func (c Config) validate() error {
	switch {
	case !c.NNConf.IsValid():
		return errors.New("NNConf is not valid. Unable to proceed")
	case !c.MCTSConf.IsValid():
		return errors.New("MCTSConf is not valid. Unable to proceed")
	case !c.ArenaConf.IsValid():
		return errors.New("ArenaConf is not valid. Unable to proceed")
	case c.MCTSConf.Mode != mcts.SelfPlay:
		return errors.Errorf("self-play needs a %v search. Got %v", mcts.SelfPlay, c.MCTSConf.Mode)
	case c.Encoder == nil:
		return errors.New("an Encoder is required")
	case c.UpdateThreshold <= 0 || c.UpdateThreshold > 1:
		return errors.Errorf("UpdateThreshold %v is not in (0, 1]", c.UpdateThreshold)
	}
	return nil
}

// GameEncoder encodes a game state as a slice of floats
type GameEncoder func(a game.State) []float32

// OutputEncoder encodes the entire meta state as whatever.
//
// An example OutputEncoder is the GifEncoder. Another example would be a websocket stream.
type OutputEncoder interface {
	Encode(ms game.MetaState) error
	Flush() error
}

// Example is one training example: the encoded position, the search probabilities and the outcome
// from the point of view of the player who moved.
type Example struct {
	Board  []float32
	Policy []float32
	Value  float32
	Player game.Player
}

// Dualer is an interface for anything that allows getting out a *Dual.
type Dualer interface {
	Dual() *dual.Dual
}

// Inferer is anything that can infer given an input.
type Inferer interface {
	Infer(a []float32) (policy []float32, value float32, err error)
	io.Closer
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}

type manyErr []error

func (err manyErr) Error() string {
	var retVal string
	for i, e := range err {
		if i > 0 {
			retVal += "; "
		}
		retVal += e.Error()
	}
	return retVal
}
