package othello

import (
	"fmt"

	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
)

var (
	// ErrGameOver is returned when a move is attempted on a finished game.
	ErrGameOver = errors.New("game is over")

	// ErrInvariant is returned when a mutation would leave the board inconsistent.
	// The board is not modified.
	ErrInvariant = errors.New("board invariant violated")
)

// moveError is an illegal move request. It is an ordinary negative result: the caller
// should query the legal moves again.
type moveError game.PlayerMove

func (err moveError) Error() string {
	return fmt.Sprintf("Unable to make %v", game.PlayerMove(err))
}

// IsIllegalMove returns true if the error (or its cause) is an illegal move rejection.
func IsIllegalMove(err error) bool {
	_, ok := errors.Cause(err).(moveError)
	return ok
}
