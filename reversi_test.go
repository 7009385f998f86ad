package reversi

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	dual "github.com/gorgonia/reversi/dualnet"
	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/game/othello"
	"github.com/gorgonia/reversi/mcts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hidden hides the Planes method of the game it wraps.
type hidden struct{ game.State }

func TestPlaneEncoder(t *testing.T) {
	g := othello.New()
	check := func(when string) {
		want := PlaneEncoder(g)
		got := PlaneEncoder(hidden{g})
		require.Len(t, got, PlaneFeatures*othello.Cells)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("planes %v differ (-planes +board):\n%s", when, diff)
		}
	}

	check("at the start")
	for _, move := range []game.Single{19, 18} {
		require.NoError(t, g.Apply(game.PlayerMove{Player: g.ToMove(), Single: move}))
		check(fmt.Sprintf("after %d", move))
	}
}

func tinyNNConf() dual.Config {
	conf := dual.DefaultConf(othello.Size, othello.Size, othello.Cells+1)
	conf.K = 2
	conf.FC = 4
	conf.SharedLayers = 0
	conf.BatchSize = 8
	conf.Seed = 1337
	return conf
}

func searchConf(mode mcts.Mode, budget int) mcts.Config {
	conf := mcts.DefaultConfig()
	if mode == mcts.Evaluation {
		conf = mcts.EvaluationConfig()
	}
	conf.Budget = budget
	conf.Seed = 1337
	return conf
}

func dummyAgent(t *testing.T, name string, conf mcts.Config) *Agent {
	a := NewAgent(name, nil, PlaneEncoder, conf)
	require.NoError(t, a.UseDummy(othello.Cells))
	return a
}

func TestAgent_Infer(t *testing.T) {
	a := NewAgent("A", nil, PlaneEncoder, searchConf(mcts.Evaluation, 4))
	_, _, err := a.Infer(othello.New())
	assert.Error(t, err, "no evaluator yet")
	assert.Error(t, a.SwitchToInference(), "no network")

	require.NoError(t, a.UseDummy(othello.Cells))
	policy, value, err := a.Infer(othello.New())
	require.NoError(t, err)
	assert.Len(t, policy, othello.Cells+1)
	assert.Zero(t, value)

	nn := dual.New(tinyNNConf())
	require.NoError(t, nn.Init())
	a.NN = nn
	require.NoError(t, a.SwitchToInference())
	policy, value, err = a.Infer(othello.New())
	require.NoError(t, err)
	assert.Len(t, policy, othello.Cells+1)
	assert.True(t, value >= -1 && value <= 1)

	move, err := a.Search(othello.New())
	require.NoError(t, err)
	assert.Contains(t, []game.Single{19, 26, 37, 44}, move)
	assert.NoError(t, a.Close())
}

func TestSelfPlay(t *testing.T) {
	a := dummyAgent(t, "A", searchConf(mcts.SelfPlay, 8))
	g := othello.New()
	reward := mcts.DefaultReward()

	examples, winner, err := SelfPlay(g, a, reward)
	require.NoError(t, err)
	ended, w := g.Ended()
	require.True(t, ended)
	assert.Equal(t, w, winner)

	history := g.History()
	require.Len(t, examples, len(history), "one example per ply, passes included")
	for i, ex := range examples {
		assert.Equal(t, history[i].Player, ex.Player)
		assert.Equal(t, reward.Value(winner, ex.Player), ex.Value)
		assert.Len(t, ex.Board, PlaneFeatures*othello.Cells)
		require.Len(t, ex.Policy, othello.Cells+1)
		var sum float32
		for _, p := range ex.Policy {
			sum += p
		}
		assert.InDelta(t, 1, sum, 1e-4)
	}
	assert.Zero(t, a.MCTS.Nodes(), "the tree is released after the game")
}

func TestSelfPlay_CustomReward(t *testing.T) {
	a := dummyAgent(t, "A", searchConf(mcts.SelfPlay, 8))
	reward := mcts.DefaultReward()
	reward.Custom = true
	black, white := game.Player(game.Black), game.Player(game.White)

	// label by winner, then by the player who moved
	labels := map[game.Player]map[game.Player]float32{
		black: {black: 1, white: -1},
		white: {black: -1.5, white: 1.5},
	}

	examples, winner, err := SelfPlay(othello.New(), a, reward)
	require.NoError(t, err)
	require.NotEmpty(t, examples)

	seen := make(map[game.Player]int)
	for i, ex := range examples {
		seen[ex.Player]++
		if !winner.IsValid() {
			assert.Zero(t, ex.Value, "ply %d of a drawn game", i)
			continue
		}
		assert.Equal(t, labels[winner][ex.Player], ex.Value, "ply %d by %v, %v won", i, ex.Player, winner)
	}
	assert.NotZero(t, seen[black])
	assert.NotZero(t, seen[white])
}

func TestSelfPlay_Evaluation(t *testing.T) {
	a := dummyAgent(t, "A", searchConf(mcts.Evaluation, 4))
	_, _, err := SelfPlay(othello.New(), a, mcts.DefaultReward())
	assert.Error(t, err)
}

type recorder struct {
	plies   []int
	flushed bool
}

func (r *recorder) Encode(ms game.MetaState) error {
	r.plies = append(r.plies, ms.State().MoveNumber())
	return nil
}

func (r *recorder) Flush() error {
	r.flushed = true
	return nil
}

func TestArena(t *testing.T) {
	conf := searchConf(mcts.Evaluation, 4)
	A := dummyAgent(t, "A", conf)
	B := dummyAgent(t, "B", conf)
	arena := NewArena(othello.New(), A, B, "othello", zerolog.Nop())

	rec := new(recorder)
	winner, err := arena.Play(rec)
	require.NoError(t, err)
	assert.Equal(t, game.Player(game.Black), A.Player)
	assert.Equal(t, game.Player(game.White), B.Player)
	ended, w := arena.State().Ended()
	assert.True(t, ended)
	assert.Equal(t, w, winner)
	for i, ply := range rec.plies {
		assert.Equal(t, i+1, ply)
	}
	assert.Len(t, rec.plies, arena.State().MoveNumber())

	arena.gameNumber = 1
	_, err = arena.Play(nil)
	require.NoError(t, err)
	assert.Equal(t, game.Player(game.White), A.Player, "colours alternate")

	rate, err := arena.Evaluate(2, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(2), A.Wins+A.Loss+A.Draw)
	assert.Equal(t, A.Wins, B.Loss)
	assert.Equal(t, A.Draw, B.Draw)
	assert.InDelta(t, float64(A.Wins+0.5*A.Draw)/2, rate, 1e-9)
	assert.InDelta(t, 1-rate, B.WinRate(), 1e-6)

	_, err = arena.Evaluate(0, nil)
	assert.Error(t, err)
}

func TestAZ_Learn(t *testing.T) {
	rec := new(recorder)
	conf := DefaultConfig("othello", othello.Size, othello.Size)
	conf.NNConf = tinyNNConf()
	conf.MCTSConf = searchConf(mcts.SelfPlay, 4)
	conf.ArenaConf = searchConf(mcts.Evaluation, 4)
	conf.MaxExamples = 16
	conf.Seed = 1337
	conf.OutputEncoder = rec

	az, err := New(othello.New(), conf)
	require.NoError(t, err)
	defer az.Close()

	require.NoError(t, az.Learn(1, 1, 2, 2))
	require.Len(t, az.Creation, 1)
	name := az.Creation[0]
	assert.Equal(t, "othello-gen0", name)
	assert.Equal(t, float32(2), az.Wins[name][0]+az.Losses[name][0]+az.Draws[name][0])
	assert.NotEmpty(t, rec.plies)
	assert.True(t, rec.flushed)
	assert.True(t, az.Generation() <= 1)
}

func TestNew_InvalidConfig(t *testing.T) {
	conf := DefaultConfig("othello", othello.Size, othello.Size)
	conf.MCTSConf = mcts.EvaluationConfig()
	_, err := New(othello.New(), conf)
	assert.Error(t, err)

	conf = DefaultConfig("othello", othello.Size, othello.Size)
	conf.UpdateThreshold = 0
	_, err = New(othello.New(), conf)
	assert.Error(t, err)

	conf = DefaultConfig("othello", othello.Size, othello.Size)
	conf.Encoder = nil
	_, err = New(othello.New(), conf)
	assert.Error(t, err)
}

func TestStatistics_Dump(t *testing.T) {
	s := makeStatistics()
	s.update("g0", &Agent{Wins: 1, Draw: 1})
	s.update("g1", &Agent{Loss: 2})

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf))
	assert.Equal(t, "g0,g1\n0.750,\n,0.000\n", buf.String())
}
