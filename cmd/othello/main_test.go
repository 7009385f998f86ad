package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gorgonia/reversi"
	"github.com/gorgonia/reversi/game/othello"
	"github.com/gorgonia/reversi/mcts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyArena(t *testing.T) *reversi.Arena {
	conf := mcts.EvaluationConfig()
	conf.Budget = 2
	conf.Seed = 1337
	A := reversi.NewAgent("A", nil, reversi.PlaneEncoder, conf)
	require.NoError(t, A.UseDummy(othello.Cells))
	B := reversi.NewAgent("B", nil, reversi.PlaneEncoder, conf)
	require.NoError(t, B.UseDummy(othello.Cells))
	return reversi.NewArena(othello.New(), A, B, "Othello", zerolog.Nop())
}

func runSpectate(ctx context.Context, t *testing.T, addr string) <-chan error {
	errc := make(chan error, 1)
	ar := dummyArena(t)
	go func() { errc <- spectate(ctx, zerolog.Nop(), addr, ar, 1) }()
	return errc
}

func TestSpectate_AddrInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	select {
	case err := <-runSpectate(context.Background(), t, l.Addr().String()):
		assert.Error(t, err)
	case <-time.After(20 * time.Second):
		t.Fatalf("spectate did not return after failing to listen on %v", l.Addr())
	}
}

func TestSpectate_Interrupted(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	errc := runSpectate(ctx, t, addr)
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("spectate did not return after being interrupted")
	}
}
