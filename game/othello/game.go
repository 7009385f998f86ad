package othello

import (
	"fmt"

	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"
)

// Status codes reported by (*Game).Status.
const (
	InProgress = -1
	BlackWins  = 1
	WhiteWins  = 2
	Draw       = 3
)

// Features is the number of input planes produced by Planes.
const Features = 4

var _ game.State = &Game{}

// Game is an Othello game in progress. It implements game.State.
type Game struct {
	board      Board
	nextToMove game.Player
	passes     int
	history    []game.PlayerMove

	legal []game.Single // legal moves of nextToMove; nil once the game is over
}

// New creates a game at the starting position with black to move.
func New() *Game {
	g := new(Game)
	g.Reset()
	return g
}

// FromBoard creates a game at an arbitrary position with toMove to play. The history starts empty.
// It panics if toMove is neither Black nor White.
func FromBoard(b Board, toMove game.Player) *Game {
	if !toMove.IsValid() {
		panic(fmt.Sprintf("Cannot start a game with %v to move", toMove))
	}
	g := &Game{board: b, nextToMove: toMove}
	g.refreshLegal()
	return g
}

// Reset puts the game back at the starting position.
func (g *Game) Reset() {
	g.board.reset()
	g.nextToMove = game.Player(game.Black)
	g.passes = 0
	g.history = g.history[:0]
	g.refreshLegal()
}

func (g *Game) BoardSize() (int, int) { return Size, Size }

// Board returns a copy of the cells in row major order.
func (g *Game) Board() []game.Colour {
	retVal := make([]game.Colour, Cells)
	copy(retVal, g.board[:])
	return retVal
}

// Position returns the board by value.
func (g *Game) Position() Board { return g.board }

func (g *Game) ActionSpace() int    { return Cells }
func (g *Game) ToMove() game.Player { return g.nextToMove }
func (g *Game) Passes() int         { return g.passes }
func (g *Game) MoveNumber() int     { return len(g.history) }

func (g *Game) History() []game.PlayerMove {
	retVal := make([]game.PlayerMove, len(g.history))
	copy(retVal, g.history)
	return retVal
}

func (g *Game) LastMove() game.PlayerMove {
	if len(g.history) == 0 {
		return game.PlayerMove{Player: game.Player(game.None), Single: game.Pass}
	}
	return g.history[len(g.history)-1]
}

// Score is the stone count of p.
func (g *Game) Score(p game.Player) float32 {
	black, white := g.board.Count()
	switch game.Colour(p) {
	case game.Black:
		return float32(black)
	case game.White:
		return float32(white)
	}
	return 0
}

// Ended reports whether the game is over and who won. A draw is reported with game.None as the winner.
func (g *Game) Ended() (ended bool, winner game.Player) {
	if !IsTerminal(g.passes, &g.board) {
		return false, game.Player(game.None)
	}
	black, white := g.board.Count()
	switch {
	case black > white:
		return true, game.Player(game.Black)
	case white > black:
		return true, game.Player(game.White)
	}
	return true, game.Player(game.None)
}

// Status returns InProgress, BlackWins, WhiteWins or Draw.
func (g *Game) Status() int {
	ended, winner := g.Ended()
	if !ended {
		return InProgress
	}
	switch game.Colour(winner) {
	case game.Black:
		return BlackWins
	case game.White:
		return WhiteWins
	}
	return Draw
}

// LegalMoves returns the moves available to the side to move. When that side cannot place a stone
// the only legal move is game.Pass. Once the game is over there are no legal moves.
func (g *Game) LegalMoves() []game.Single {
	if g.legal == nil {
		return nil
	}
	retVal := make([]game.Single, len(g.legal))
	copy(retVal, g.legal)
	return retVal
}

func (g *Game) Check(m game.PlayerMove) bool {
	if m.Player != g.nextToMove {
		return false
	}
	return containsSingle(g.legal, m.Single)
}

// Apply plays m. Nothing is changed when an error is returned.
func (g *Game) Apply(m game.PlayerMove) error {
	if g.legal == nil {
		return errors.WithMessage(ErrGameOver, fmt.Sprintf("cannot apply %v", m))
	}
	if m.Player != g.nextToMove {
		return errors.WithMessage(ErrInvariant, fmt.Sprintf("%v is not to move, %v is", m.Player, g.nextToMove))
	}
	if !containsSingle(g.legal, m.Single) {
		return moveError(m)
	}

	if m.Single.IsPass() {
		if g.passes < 2 {
			g.passes++
		}
	} else {
		row, col := int(m.Single)/Size, int(m.Single)%Size
		captured := g.board.Flips(game.Colour(m.Player), row, col)
		if err := g.board.Apply(game.Colour(m.Player), row, col, captured); err != nil {
			return err
		}
		g.passes = 0
	}
	g.history = append(g.history, m)
	g.nextToMove = m.Player.Opponent()
	g.refreshLegal()
	return nil
}

func (g *Game) refreshLegal() {
	if IsTerminal(g.passes, &g.board) {
		g.legal = nil
		return
	}
	g.legal = g.board.LegalMoves(game.Colour(g.nextToMove))
	if len(g.legal) == 0 {
		g.legal = []game.Single{game.Pass}
	}
}

// Planes returns the Features input planes, each Size*Size long, concatenated:
// black stones, white stones, empty cells, and a plane of ones when black is to move.
func (g *Game) Planes() []float32 {
	retVal := make([]float32, Features*Cells)
	black := retVal[0:Cells]
	white := retVal[Cells : 2*Cells]
	empty := retVal[2*Cells : 3*Cells]
	toMove := retVal[3*Cells:]
	for i, c := range g.board {
		switch c {
		case game.Black:
			black[i] = 1
		case game.White:
			white[i] = 1
		}
		empty[i] = 1
	}
	vecf32.Sub(empty, black)
	vecf32.Sub(empty, white)
	if game.Colour(g.nextToMove) == game.Black {
		for i := range toMove {
			toMove[i] = 1
		}
	}
	return retVal
}

// Eq compares the position, the side to move and the pass counter.
func (g *Game) Eq(other game.State) bool {
	ot, ok := other.(*Game)
	if !ok {
		return false
	}
	return g.board == ot.board && g.nextToMove == ot.nextToMove && g.passes == ot.passes
}

func (g *Game) Clone() game.State {
	retVal := &Game{
		board:      g.board,
		nextToMove: g.nextToMove,
		passes:     g.passes,
		history:    make([]game.PlayerMove, len(g.history), len(g.history)+8),
	}
	copy(retVal.history, g.history)
	if g.legal != nil {
		retVal.legal = make([]game.Single, len(g.legal))
		copy(retVal.legal, g.legal)
	}
	return retVal
}

// Ltoi converts a (row, col) coordinate to a linear cell index.
func (g *Game) Ltoi(c game.Coord) game.Single { return game.Single(int(c.X)*Size + int(c.Y)) }

// Itol converts a linear cell index back to a (row, col) coordinate.
func (g *Game) Itol(s game.Single) game.Coord {
	if s.IsPass() {
		return game.Coord{X: -1, Y: -1}
	}
	return game.Coord{X: int16(int(s) / Size), Y: int16(int(s) % Size)}
}

func (g *Game) Format(s fmt.State, c rune) {
	g.board.Format(s, c)
	switch g.Status() {
	case InProgress:
		fmt.Fprintf(s, "%v to move\n", g.nextToMove)
	case Draw:
		fmt.Fprint(s, "Draw\n")
	default:
		_, winner := g.Ended()
		fmt.Fprintf(s, "%v wins\n", winner)
	}
}
