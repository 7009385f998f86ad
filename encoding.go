package reversi

import (
	"github.com/gorgonia/reversi/game"
	"gorgonia.org/vecf32"
)

// PlaneFeatures is the number of planes produced by PlaneEncoder.
const PlaneFeatures = 4

type planer interface {
	Planes() []float32
}

// PlaneEncoder encodes a two player board as four planes: black stones, white stones, empty cells, and
// a plane of ones if black is to move.
func PlaneEncoder(a game.State) []float32 {
	if p, ok := a.(planer); ok {
		return p.Planes()
	}

	board := a.Board()
	size := len(board)
	retVal := make([]float32, PlaneFeatures*size)
	black := encodeColour(board, game.Black, retVal[:size])
	white := encodeColour(board, game.White, retVal[size:2*size])

	empty := retVal[2*size : 3*size]
	fill(empty, 1)
	vecf32.Sub(empty, black)
	vecf32.Sub(empty, white)

	if a.ToMove() == game.Player(game.Black) {
		fill(retVal[3*size:], 1)
	}
	return retVal
}

// encodeColour writes 1 wherever board has colour c.
func encodeColour(board []game.Colour, c game.Colour, prealloc []float32) []float32 {
	if len(prealloc) != len(board) {
		prealloc = make([]float32, len(board))
	}
	for i := range board {
		if board[i] == c {
			prealloc[i] = 1
		} else {
			prealloc[i] = 0
		}
	}
	return prealloc
}

func fill(a []float32, v float32) {
	for i := range a {
		a[i] = v
	}
}
