package gtp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
)

type Command interface {
	Do(id int, args []string, e *Engine) (int, string, error)
}

type stdlib func(e *Engine) string

type stdlib2 func(e *Engine, args []string) (string, error)

func (f stdlib) Do(id int, args []string, e *Engine) (int, string, error) {
	str := f(e)
	return id, str, nil
}

func (f stdlib2) Do(id int, args []string, e *Engine) (int, string, error) {
	str, err := f(e, args)
	return id, str, err
}

func protocolVersion(e *Engine) string { return "2" }
func name(e *Engine) string            { return e.name }
func version(e *Engine) string         { return e.version }

func listCommands(e *Engine) string {
	cmds := make([]string, 0, len(e.known))
	for c := range e.known {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	return strings.Join(cmds, "\n")
}

func quit(e *Engine) string       { e.quit = true; return "" }
func clearBoard(e *Engine) string { e.g.Reset(); return "" }
func showboard(e *Engine) string  { return fmt.Sprintf("\n%v", e.g) }

// undo replays every ply but the last one from the starting position.
func undo(e *Engine, args []string) (string, error) {
	history := e.g.History()
	if len(history) == 0 {
		return "", errors.New("cannot undo")
	}
	e.g.Reset()
	for _, m := range history[:len(history)-1] {
		if err := e.g.Apply(m); err != nil {
			return "", errors.WithMessage(err, "unable to replay the game")
		}
	}
	return "", nil
}

func knownCommand(e *Engine, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("Not enough arguments for \"known_command\"")
	}
	if _, ok := e.known[args[0]]; ok {
		return "true", nil
	}
	return "false", nil
}

func boardSize(e *Engine, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("Not enough arguments for \"boardsize\"")
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return "", errors.WithMessage(err, "Unable to parse first argument of boardsize")
	}
	if m, n := e.g.BoardSize(); size != m || size != n {
		return "", errors.New("unacceptable size")
	}
	return "", nil
}

func play(e *Engine, args []string) (string, error) {
	if len(args) < 2 {
		return "", errors.New("Not enough arguments for \"play\"")
	}
	player, err := parseColour(args[0])
	if err != nil {
		return "", err
	}
	move, err := parseVertex(e.g, args[1])
	if err != nil {
		return "", err
	}
	if player != e.g.ToMove() {
		return "", errors.Errorf("illegal move: %v is not to move", args[0])
	}
	if err := e.g.Apply(game.PlayerMove{Player: player, Single: move}); err != nil {
		return "", errors.WithMessage(err, "illegal move")
	}
	return "", nil
}

func genmove(e *Engine, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("Not enough arguments for \"genmove\"")
	}
	if e.Generate == nil {
		return "", errors.New("Unable to generate moves. No generator found")
	}
	player, err := parseColour(args[0])
	if err != nil {
		return "", err
	}
	if player != e.g.ToMove() {
		return "", errors.Errorf("%v is not to move", args[0])
	}
	move, err := e.Generate(e.g)
	if err != nil {
		return "", err
	}
	if err := e.g.Apply(game.PlayerMove{Player: player, Single: move}); err != nil {
		return "", errors.WithMessage(err, "generated an illegal move")
	}
	return formatVertex(e.g, move), nil
}

func legalMoves(e *Engine) string {
	moves := e.g.LegalMoves()
	vertices := make([]string, len(moves))
	for i, m := range moves {
		vertices[i] = formatVertex(e.g, m)
	}
	return strings.Join(vertices, " ")
}

// finalScore is the stone difference: "B+12", "W+3" or "0".
func finalScore(e *Engine) string {
	black := e.g.Score(game.Player(game.Black))
	white := e.g.Score(game.Player(game.White))
	switch {
	case black > white:
		return fmt.Sprintf("B+%v", black-white)
	case white > black:
		return fmt.Sprintf("W+%v", white-black)
	}
	return "0"
}

func status(e *Engine) string {
	ended, winner := e.g.Ended()
	if !ended {
		return "playing"
	}
	switch game.Colour(winner) {
	case game.Black:
		return "black"
	case game.White:
		return "white"
	}
	return "draw"
}

func StandardLib() map[string]Command {
	return map[string]Command{
		"protocol_version": stdlib(protocolVersion),
		"name":             stdlib(name),
		"version":          stdlib(version),
		"list_commands":    stdlib(listCommands),
		"quit":             stdlib(quit),
		"clear_board":      stdlib(clearBoard),
		"showboard":        stdlib(showboard),
		"legal_moves":      stdlib(legalMoves),
		"final_score":      stdlib(finalScore),
		"status":           stdlib(status),

		"known_command": stdlib2(knownCommand),
		"boardsize":     stdlib2(boardSize),
		"play":          stdlib2(play),
		"genmove":       stdlib2(genmove),
		"undo":          stdlib2(undo),
	}
}

func parseColour(a string) (game.Player, error) {
	switch a {
	case "b", "black", "x":
		return game.Player(game.Black), nil
	case "w", "white", "o":
		return game.Player(game.White), nil
	}
	return game.Player(game.None), errors.Errorf("invalid color %q", a)
}

// parseVertex accepts "d3", "19" or "pass".
func parseVertex(g game.State, a string) (game.Single, error) {
	if a == "pass" {
		return game.Pass, nil
	}
	m, n := g.BoardSize()
	if i, err := strconv.Atoi(a); err == nil {
		if i == int(game.Pass) {
			return game.Pass, nil
		}
		if i < 0 || i >= m*n {
			return 0, errors.Errorf("invalid vertex %q", a)
		}
		return game.Single(i), nil
	}
	if len(a) < 2 {
		return 0, errors.Errorf("invalid vertex %q", a)
	}
	col := int(a[0] - 'a')
	row, err := strconv.Atoi(a[1:])
	if err != nil || col < 0 || col >= n || row < 1 || row > m {
		return 0, errors.Errorf("invalid vertex %q", a)
	}
	return game.Single((row-1)*n + col), nil
}

func formatVertex(g game.State, s game.Single) string {
	if s.IsPass() {
		return "pass"
	}
	_, n := g.BoardSize()
	return fmt.Sprintf("%c%d", 'a'+int(s)%n, int(s)/n+1)
}
