package othello

import (
	"fmt"

	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
)

const (
	Size  = 8
	Cells = Size * Size
)

// Board is an 8x8 Othello grid stored row major. It is a value type: assigning a Board copies it.
type Board [Cells]game.Colour

// directions are the 8 rays a capture can run along.
var directions = [8]game.Coord{
	{X: 0, Y: 1},
	{X: 1, Y: 1},
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
}

// NewBoard returns the starting position: white on d4/e5, black on e4/d5.
func NewBoard() Board {
	var b Board
	b.reset()
	return b
}

func (b *Board) reset() {
	for i := range b {
		b[i] = game.None
	}
	b[3*Size+3] = game.White
	b[3*Size+4] = game.Black
	b[4*Size+3] = game.Black
	b[4*Size+4] = game.White
}

// At returns the colour at (row, col).
func (b *Board) At(row, col int) game.Colour { return b[row*Size+col] }

// Flips returns the opponent cells that would be flipped if side played at (row, col).
// A nil return means the move is not legal: the cell is off board, occupied, or brackets nothing.
func (b *Board) Flips(side game.Colour, row, col int) []game.Single {
	if !onBoard(row, col) || b[row*Size+col] != game.None {
		return nil
	}
	other := opposite(side)

	var captures []game.Single
	for _, d := range directions {
		r, c := row+int(d.X), col+int(d.Y)
		var run int
		for onBoard(r, c) && b[r*Size+c] == other {
			r += int(d.X)
			c += int(d.Y)
			run++
		}
		if run == 0 || !onBoard(r, c) || b[r*Size+c] != side {
			continue
		}
		// walk back towards the placed stone
		for i := 0; i < run; i++ {
			r -= int(d.X)
			c -= int(d.Y)
			captures = append(captures, game.Single(r*Size+c))
		}
	}
	return captures
}

// LegalMoves scans every cell in row major order and returns the placements available to side.
func (b *Board) LegalMoves(side game.Colour) []game.Single {
	var retVal []game.Single
	for i := 0; i < Cells; i++ {
		if len(b.Flips(side, i/Size, i%Size)) > 0 {
			retVal = append(retVal, game.Single(i))
		}
	}
	return retVal
}

// Apply places side's stone at (row, col) and flips every captured cell.
//
// captured has to be a non empty subset of what Flips reports for the same move. Anything else is an
// invariant violation, in which case the board is left as it was.
func (b *Board) Apply(side game.Colour, row, col int, captured []game.Single) error {
	if side != game.Black && side != game.White {
		return errors.WithMessage(ErrInvariant, fmt.Sprintf("impossible colour %v", side))
	}
	flips := b.Flips(side, row, col)
	if len(flips) == 0 || len(captured) == 0 {
		return errors.WithMessage(ErrInvariant, fmt.Sprintf("(%d, %d) captures nothing for %v", row, col, side))
	}
	for _, c := range captured {
		if !containsSingle(flips, c) {
			return errors.WithMessage(ErrInvariant, fmt.Sprintf("%d is not capturable from (%d, %d)", c, row, col))
		}
	}
	b.place(side, row*Size+col, captured)
	return nil
}

func (b *Board) place(side game.Colour, at int, captured []game.Single) {
	b[at] = side
	for _, c := range captured {
		b[c] = side
	}
}

// Count returns the raw tally of black and white stones.
func (b *Board) Count() (black, white int) {
	for _, c := range b {
		switch c {
		case game.Black:
			black++
		case game.White:
			white++
		}
	}
	return
}

func (b *Board) isFull() bool {
	for _, c := range b {
		if c == game.None {
			return false
		}
	}
	return true
}

// IsTerminal reports whether a game with the given consecutive pass count and board is over:
// both sides passed in succession, one colour has been wiped out, or no empty cell remains.
func IsTerminal(passes int, b *Board) bool {
	if passes >= 2 {
		return true
	}
	black, white := b.Count()
	if black == 0 || white == 0 {
		return true
	}
	return b.isFull()
}

func (b *Board) Format(s fmt.State, c rune) {
	switch c {
	case 's', 'v':
		for r := 0; r < Size; r++ {
			fmt.Fprint(s, "⎢ ")
			for _, col := range b[r*Size : (r+1)*Size] {
				fmt.Fprintf(s, "%s ", col)
			}
			fmt.Fprint(s, "⎥\n")
		}
	}
}

func onBoard(row, col int) bool { return row >= 0 && row < Size && col >= 0 && col < Size }

func opposite(c game.Colour) game.Colour {
	switch c {
	case game.Black:
		return game.White
	case game.White:
		return game.Black
	}
	return game.None
}

func containsSingle(l []game.Single, a game.Single) bool {
	for _, v := range l {
		if v == a {
			return true
		}
	}
	return false
}
