package gif

import (
	"bytes"
	"image/color"
	"image/gif"
	"testing"

	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/game/othello"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type match struct {
	g    game.State
	game int
}

func (m *match) Name() string                { return "othello" }
func (m *match) Epoch() int                  { return 0 }
func (m *match) GameNumber() int             { return m.game }
func (m *match) Score(p game.Player) float64 { return float64(m.g.Score(p)) }
func (m *match) State() game.State           { return m.g }

func sameColour(t *testing.T, want, got color.Color) {
	r1, g1, b1, a1 := want.RGBA()
	r2, g2, b2, a2 := got.RGBA()
	assert.Equal(t, []uint32{r1, g1, b1, a1}, []uint32{r2, g2, b2, a2})
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, 0)
	assert.Equal(t, DefaultCell, enc.Cell)
	assert.Error(t, enc.Flush(), "nothing to flush yet")

	g := othello.New()
	ms := &match{g: g}
	require.NoError(t, enc.Encode(ms))
	for _, move := range []game.Single{19, 18} {
		require.NoError(t, g.Apply(game.PlayerMove{Player: g.ToMove(), Single: move}))
		require.NoError(t, enc.Encode(ms))
	}
	assert.Equal(t, 3, enc.Frames())
	require.NoError(t, enc.Flush())

	out, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, out.Image, 3)
	assert.Equal(t, []int{50, 50, 50}, out.Delay)

	first := out.Image[0]
	bounds := first.Bounds()
	assert.True(t, bounds.Dx() >= othello.Size*DefaultCell)
	assert.True(t, bounds.Dy() > othello.Size*DefaultCell)

	centre := func(row, col int) (int, int) {
		return enc.pad + col*DefaultCell + DefaultCell/2 + 3, enc.pad + row*DefaultCell + DefaultCell/2 + 3
	}
	x, y := centre(3, 4)
	sameColour(t, color.Gray{0}, first.At(x, y))
	x, y = centre(3, 3)
	sameColour(t, color.Gray{255}, first.At(x, y))
	x, y = centre(0, 0)
	sameColour(t, globPalette[felt], first.At(x, y))

	// the last move is marked
	x, y = centre(2, 3)
	sameColour(t, globPalette[marker], out.Image[1].At(x-3, y-3))
}

func TestEncoder_FinishedGame(t *testing.T) {
	var b othello.Board
	b[0], b[1] = game.Black, game.Black
	g := othello.FromBoard(b, game.Player(game.White))

	var buf bytes.Buffer
	enc := NewEncoder(&buf, 16)
	require.NoError(t, enc.Encode(&match{g: g, game: 3}))
	require.NoError(t, enc.Flush())

	out, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{300}, out.Delay)
}
