package othello

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const (
	X = game.Black
	O = game.White
	Z = game.None
)

var (
	black = game.Player(game.Black)
	white = game.Player(game.White)
)

func setup(b Board, toMove game.Player) *Game { return FromBoard(b, toMove) }

func TestNew(t *testing.T) {
	g := New()
	b, w := g.board.Count()
	assert.Equal(t, 2, b)
	assert.Equal(t, 2, w)
	assert.Equal(t, black, g.ToMove())
	assert.Equal(t, InProgress, g.Status())
	assert.Equal(t, 0, g.MoveNumber())

	occupied := 0
	for _, c := range g.Board() {
		if c != Z {
			occupied++
		}
	}
	assert.Equal(t, 4, occupied)

	want := []game.Single{
		g.Ltoi(game.Coord{X: 2, Y: 3}),
		g.Ltoi(game.Coord{X: 3, Y: 2}),
		g.Ltoi(game.Coord{X: 4, Y: 5}),
		g.Ltoi(game.Coord{X: 5, Y: 4}),
	}
	if diff := cmp.Diff(want, g.LegalMoves()); diff != "" {
		t.Errorf("opening moves mismatch (-want +got):\n%s", diff)
	}
}

func TestBoard_Flips(t *testing.T) {
	var b Board = [Cells]game.Colour{
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, X, Z, Z, Z, Z, Z, Z,
		Z, Z, O, Z, Z, Z, Z, Z,
		Z, X, O, O, O, Z, Z, Z,
		Z, Z, O, Z, Z, Z, Z, Z,
		Z, Z, X, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, O,
	}

	testCases := []struct {
		name     string
		side     game.Colour
		row, col int
		want     []game.Single
	}{
		{"horizontal run", X, 3, 5, []game.Single{26, 27, 28}},
		{"diagonal", X, 4, 4, []game.Single{18, 27}},
		{"vertical", X, 1, 2, []game.Single{34, 26, 18}},
		{"white", O, 0, 0, []game.Single{9}},
		{"occupied", X, 3, 3, nil},
		{"adjacent to own stone", X, 3, 0, nil},
		{"run reaches the edge", X, 6, 6, nil},
		{"run reaches an empty cell", X, 2, 4, nil},
		{"off board", X, 8, 0, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := b.Flips(tc.side, tc.row, tc.col)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Flips(%v, %d, %d) mismatch (-want +got):\n%s", tc.side, tc.row, tc.col, diff)
			}
		})
	}
}

func TestBoard_Apply(t *testing.T) {
	b := NewBoard()
	before := b

	// inconsistent capture list
	err := b.Apply(X, 2, 3, []game.Single{28})
	require.Error(t, err)
	assert.Equal(t, ErrInvariant, errors.Cause(err))
	assert.Equal(t, before, b)

	// not a legal placement
	err = b.Apply(X, 0, 0, nil)
	assert.Equal(t, ErrInvariant, errors.Cause(err))
	assert.Equal(t, before, b)

	// impossible colour
	err = b.Apply(Z, 2, 3, []game.Single{27})
	assert.Equal(t, ErrInvariant, errors.Cause(err))

	require.NoError(t, b.Apply(X, 2, 3, []game.Single{27}))
	assert.Equal(t, X, b.At(2, 3))
	assert.Equal(t, X, b.At(3, 3))
	bl, wh := b.Count()
	assert.Equal(t, 4, bl)
	assert.Equal(t, 1, wh)
}

func TestGame_Apply(t *testing.T) {
	g := New()
	before := g.Position()

	err := g.Apply(game.PlayerMove{Player: black, Single: 0})
	assert.True(t, IsIllegalMove(err), "expected an illegal move. Got %v", err)
	assert.Equal(t, before, g.Position())

	err = g.Apply(game.PlayerMove{Player: black, Single: game.Pass})
	assert.True(t, IsIllegalMove(err), "pass is not forced. Got %v", err)

	err = g.Apply(game.PlayerMove{Player: white, Single: 19})
	assert.Equal(t, ErrInvariant, errors.Cause(err))
	assert.False(t, IsIllegalMove(err))
	assert.Equal(t, before, g.Position())
	assert.Equal(t, 0, g.MoveNumber())

	m := game.PlayerMove{Player: black, Single: 19}
	assert.True(t, g.Check(m))
	require.NoError(t, g.Apply(m))
	assert.Equal(t, white, g.ToMove())
	assert.Equal(t, m, g.LastMove())
	assert.Equal(t, []game.PlayerMove{m}, g.History())
	assert.Equal(t, float32(4), g.Score(black))
	assert.Equal(t, float32(1), g.Score(white))
}

func TestGame_DoublePass(t *testing.T) {
	var b Board
	b[0], b[1], b[63] = X, X, O
	g := setup(b, black)

	assert.Equal(t, []game.Single{game.Pass}, g.LegalMoves())
	ended, _ := g.Ended()
	assert.False(t, ended)

	require.NoError(t, g.Apply(game.PlayerMove{Player: black, Single: game.Pass}))
	assert.Equal(t, 1, g.Passes())
	assert.Equal(t, []game.Single{game.Pass}, g.LegalMoves())

	require.NoError(t, g.Apply(game.PlayerMove{Player: white, Single: game.Pass}))
	assert.Equal(t, 2, g.Passes())

	ended, winner := g.Ended()
	assert.True(t, ended)
	assert.Equal(t, black, winner)
	assert.Equal(t, BlackWins, g.Status())
	assert.Nil(t, g.LegalMoves())

	err := g.Apply(game.PlayerMove{Player: black, Single: game.Pass})
	assert.Equal(t, ErrGameOver, errors.Cause(err))
	assert.Equal(t, 2, g.Passes())
}

func TestFromBoard_NoPlayer(t *testing.T) {
	var b Board
	b.reset()
	assert.Panics(t, func() { setup(b, game.Player(Z)) })
	assert.NotPanics(t, func() { setup(b, white) })
}

func TestGame_ForcedPassResets(t *testing.T) {
	// white has no move, black can still capture after the pass
	var b Board = [Cells]game.Colour{
		X, O, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, Z,
		Z, Z, Z, Z, Z, Z, Z, X,
	}
	g := setup(b, white)
	assert.Equal(t, []game.Single{game.Pass}, g.LegalMoves())
	require.NoError(t, g.Apply(game.PlayerMove{Player: white, Single: game.Pass}))
	assert.Equal(t, 1, g.Passes())

	assert.Equal(t, []game.Single{2}, g.LegalMoves())
	require.NoError(t, g.Apply(game.PlayerMove{Player: black, Single: 2}))
	assert.Equal(t, 0, g.Passes())

	// white has been wiped out
	assert.Equal(t, BlackWins, g.Status())
	assert.Nil(t, g.LegalMoves())
}

func TestIsTerminal(t *testing.T) {
	full := NewBoard()
	for i := range full {
		if i%2 == 0 {
			full[i] = X
		} else {
			full[i] = O
		}
	}
	var onlyBlack Board
	onlyBlack[10] = X
	start := NewBoard()

	testCases := []struct {
		name   string
		passes int
		board  Board
		want   bool
	}{
		{"start", 0, start, false},
		{"one pass", 1, start, false},
		{"double pass", 2, start, true},
		{"full board", 0, full, true},
		{"wiped out", 0, onlyBlack, true},
	}
	for _, tc := range testCases {
		b := tc.board
		assert.Equal(t, tc.want, IsTerminal(tc.passes, &b), tc.name)
	}

	g := setup(full, black)
	assert.Equal(t, Draw, g.Status())
}

func TestGame_Clone(t *testing.T) {
	g := New()
	require.NoError(t, g.Apply(game.PlayerMove{Player: black, Single: 19}))
	before := g.Position()

	c := g.Clone()
	assert.True(t, g.Eq(c))
	require.NoError(t, c.Apply(game.PlayerMove{Player: white, Single: 18}))
	assert.False(t, g.Eq(c))
	assert.Equal(t, before, g.Position(), "original must not be touched by the clone")
	assert.Equal(t, 1, g.MoveNumber())

	require.NoError(t, g.Apply(game.PlayerMove{Player: white, Single: 18}))
	assert.True(t, g.Eq(c))
	if diff := cmp.Diff(g.Board(), c.Board()); diff != "" {
		t.Errorf("boards differ (-orig +clone):\n%s", diff)
	}
}

// TestRandomGames plays random games and checks the capture bookkeeping of every ply.
func TestRandomGames(t *testing.T) {
	r := rand.New(rand.NewSource(1337))
	for i := 0; i < 50; i++ {
		g := New()
		for ply := 0; ; ply++ {
			require.True(t, ply < 200, "game %d does not terminate", i)
			moves := g.LegalMoves()
			if moves == nil {
				ended, _ := g.Ended()
				require.True(t, ended)
				break
			}
			m := moves[r.Intn(len(moves))]
			p := g.ToMove()
			if m.IsPass() {
				require.Len(t, moves, 1, "pass is only legal when forced")
				require.NoError(t, g.Apply(game.PlayerMove{Player: p, Single: m}))
				continue
			}

			flips := g.board.Flips(game.Colour(p), int(m)/Size, int(m)%Size)
			require.NotEmpty(t, flips)
			mine, theirs := g.Score(p), g.Score(p.Opponent())
			require.NoError(t, g.Apply(game.PlayerMove{Player: p, Single: m}))
			assert.Equal(t, mine+float32(len(flips))+1, g.Score(p))
			assert.Equal(t, theirs-float32(len(flips)), g.Score(p.Opponent()))
		}
		assert.NotEqual(t, InProgress, g.Status())
	}
}

func TestGame_Planes(t *testing.T) {
	g := New()
	planes := g.Planes()
	require.Len(t, planes, Features*Cells)

	sum := func(a []float32) (s float32) {
		for _, v := range a {
			s += v
		}
		return
	}
	assert.Equal(t, float32(2), sum(planes[:Cells]))
	assert.Equal(t, float32(2), sum(planes[Cells:2*Cells]))
	assert.Equal(t, float32(60), sum(planes[2*Cells:3*Cells]))
	assert.Equal(t, float32(64), sum(planes[3*Cells:]))
	assert.Equal(t, float32(1), planes[Cells+27])

	require.NoError(t, g.Apply(game.PlayerMove{Player: black, Single: 19}))
	planes = g.Planes()
	assert.Equal(t, float32(0), sum(planes[3*Cells:]))
}

func TestCoords(t *testing.T) {
	g := New()
	for i := game.Single(0); i < Cells; i++ {
		assert.Equal(t, i, g.Ltoi(g.Itol(i)))
	}
	assert.Equal(t, game.Coord{X: -1, Y: -1}, g.Itol(game.Pass))
}

func Example() {
	g := New()
	fmt.Println(g)
	if err := g.Apply(game.PlayerMove{Player: g.ToMove(), Single: 19}); err != nil {
		fmt.Println(err)
	}
	fmt.Printf("%v", g)
	// Output:
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · O X · · · ⎥
	// ⎢ · · · X O · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// Black to move
	//
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · X · · · · ⎥
	// ⎢ · · · X X · · · ⎥
	// ⎢ · · · X O · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// ⎢ · · · · · · · · ⎥
	// White to move
}
