package game

import (
	"fmt"
)

type Colour int32

const (
	None Colour = iota
	Black
	White
)

func (cl Colour) Format(s fmt.State, c rune) {
	switch c {
	case 'v': // used in debug
		switch cl {
		case None:
			fmt.Fprint(s, "None")
		case Black:
			fmt.Fprint(s, "Black")
		case White:
			fmt.Fprint(s, "White")
		}
	case 's': // used in board games
		switch cl {
		case None:
			fmt.Fprint(s, "·")
		case Black:
			fmt.Fprint(s, "X")
		case White:
			fmt.Fprint(s, "O")
		}
	}
}

// Player represents a player. It's also a colour.
//
// The numeric value doubles as the player id used when reporting results:
// 1 is black, 2 is white.
type Player Colour

func (p Player) Format(s fmt.State, c rune) { Colour(p).Format(s, c) }

// Opponent returns the other player. It panics on None.
func (p Player) Opponent() Player {
	switch Colour(p) {
	case Black:
		return Player(White)
	case White:
		return Player(Black)
	}
	panic("Unreachable")
}

// IsValid returns true if the player is either Black or White
func (p Player) IsValid() bool { return Colour(p) == Black || Colour(p) == White }

// PlayerMove is a tuple indicating the player and the move to be made.
type PlayerMove struct {
	Player
	Single
}

// Eq returns true if both are equal
func (p PlayerMove) Eq(other PlayerMove) bool {
	return p.Player == other.Player && p.Single == other.Single
}

func (p PlayerMove) Format(s fmt.State, c rune) { fmt.Fprintf(s, "%v@%d", p.Player, p.Single) }

// Coord represents a (row, col) coordinate.
//
// The Coord uses a standard computer cartesian coordinates
//		- (0, 0) represents the top left
//		- (7, 7) represents the bottom right of an 8x8 board
type Coord struct {
	X, Y int16
}

func (c Coord) Add(other Coord) Coord { return Coord{c.X + other.X, c.Y + other.Y} }

func (c Coord) Eq(other Coord) bool { return c.X == other.X && c.Y == other.Y }

// Single represents a coordinate as a single number, utilized in a rowmajor fashion.
//		- 0 represents the top left
//		- 7 represents the top right of an 8x8 board
//		- 8 represents (1, 0)
// 		- -1 represents the "pass" move
type Single int32

// Pass is the sentinel move played when the side to move has no legal placement.
const Pass Single = -1

// IsPass returns true when the coordinate represents a "pass" move
func (c Single) IsPass() bool { return c == Pass }

// State is any game that the search can be run on.
type State interface {
	// These methods represent the game state
	BoardSize() (int, int) // returns the board size
	Board() []Colour       // returns the board state
	ActionSpace() int      // returns the number of cells. The pass move lives at index ActionSpace()
	ToMove() Player        // returns the player who is about to move
	Passes() int           // returns the number of consecutive passes
	MoveNumber() int       // returns count of plies so far that led to this point, passes included
	LastMove() PlayerMove  // returns the last move that was made
	History() []PlayerMove // returns every ply made so far, in order

	// Meta-game stuff
	Score(p Player) float32             // stone count of the given player
	Ended() (ended bool, winner Player) // has the game ended? if yes, then who's the winner? None is a draw.

	// interactions
	LegalMoves() []Single     // legal moves of the player to move. A lone Pass means a forced pass.
	Check(m PlayerMove) bool  // check if the move is legal
	Apply(m PlayerMove) error // apply the move. The board must be left untouched when an error is returned.
	Reset()                   // reset state

	// generics
	Eq(other State) bool
	Clone() State
}

// MetaState is the state of a match or a training run as seen by an output encoder.
type MetaState interface {
	Name() string // name of the game
	Epoch() int
	GameNumber() int
	Score(a Player) float64
	State() State
}

type CoordConverter interface {
	Ltoi(Coord) Single
	Itol(Single) Coord
}
