package gtp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/game/othello"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_General(t *testing.T) {
	assert := assert.New(t)
	e := New(othello.New(), "xx", "1", nil)
	var x string

	ch, ret := e.Start()
	ch <- "version"
	x = <-ret
	assert.Equal("= 1\n\n", x)

	ch <- "known_command hello"
	x = <-ret
	assert.Equal("= false\n\n", x)

	ch <- "known_command name"
	x = <-ret
	assert.Equal("= true\n\n", x)

	ch <- "completelyUnheardOfCommand xxx"
	x = <-ret
	assert.Equal("? Unknown command \"completelyunheardofcommand\"\n\n", x)

	ch <- "3 quit"
	x = <-ret
	assert.Equal("= 3 \n\n", x)
	_, open := <-ret
	assert.False(open)
}

func TestEngine_Exec(t *testing.T) {
	e := New(othello.New(), "reversi", "1", nil)
	e.Generate = func(g game.State) (game.Single, error) { return g.LegalMoves()[0], nil }

	testCases := []struct {
		cmd, want string
	}{
		{"boardsize 8", "= \n\n"},
		{"boardsize 19", "? unacceptable size\n\n"},
		{"legal_moves", "= d3 c4 f5 e6\n\n"},
		{"1 play white d3", "? 1 illegal move: white is not to move\n\n"},
		{"play black a1", "? illegal move: Unable to make Black@0\n\n"},
		{"play black z9", "? invalid vertex \"z9\"\n\n"},
		{"play black D3", "= \n\n"},
		{"final_score", "= B+3\n\n"},
		{"genmove w", "= c3\n\n"},
		{"status", "= playing\n\n"},
		{"undo", "= \n\n"},
		{"legal_moves", "= c3 e3 c5\n\n"},
		{"play w 18 # comment", "= \n\n"},
		{"final_score", "= 0\n\n"},
	}
	for _, tc := range testCases {
		got, ok := e.Exec(tc.cmd)
		require.True(t, ok, tc.cmd)
		assert.Equal(t, tc.want, got, tc.cmd)
	}

	_, ok := e.Exec("   ")
	assert.False(t, ok)
	assert.Equal(t, 2, e.State().MoveNumber())
}

func TestEngine_Run(t *testing.T) {
	e := New(othello.New(), "reversi", "1", nil)
	in := strings.NewReader("name\nclear_board\nquit\nname\n")
	var out bytes.Buffer
	require.NoError(t, e.Run(in, &out))
	assert.Equal(t, "= reversi\n\n= \n\n= \n\n", out.String())
}

func TestVertex(t *testing.T) {
	g := othello.New()
	for _, s := range []game.Single{0, 7, 19, 56, 63, game.Pass} {
		v := formatVertex(g, s)
		got, err := parseVertex(g, v)
		require.NoError(t, err)
		assert.Equal(t, s, got, v)
	}
	assert.Equal(t, "d3", formatVertex(g, 19))
	_, err := parseVertex(g, "64")
	assert.Error(t, err)
	_, err = parseVertex(g, "i1")
	assert.Error(t, err)
}
