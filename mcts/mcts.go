package mcts

import (
	"github.com/gorgonia/reversi/game"
	"github.com/rs/zerolog"
)

// Inferencer is essentially the neural network.
//
// The policy has ActionSpace()+1 entries, the pass move being the last one. The value lies in [-1, 1]
// and is from the point of view of the player to move in state.
type Inferencer interface {
	Infer(state game.State) (policy []float32, value float32, err error)
}

const (
	Pass game.Single = game.Pass

	White game.Player = game.Player(game.White)
	Black game.Player = game.Player(game.Black)
)

// Mode tells the search what its results are going to be used for.
type Mode int

const (
	// SelfPlay searches keep the tree between moves, sample moves with noise and record a training label.
	SelfPlay Mode = iota
	// Evaluation searches play (almost) greedily and throw the tree away after every move.
	Evaluation
)

func (m Mode) String() string {
	switch m {
	case SelfPlay:
		return "self-play"
	case Evaluation:
		return "evaluation"
	}
	return "UNKNOWN MODE"
}

// Config is the structure to configure the search.
type Config struct {
	// PUCT is the exploration constant C in Q + C*P*sqrt(N)/(1+n).
	PUCT   float32
	Budget int // number of playouts per search
	Mode   Mode

	// DecayTemperature switches self-play from sampling at τ=1 with root noise to sampling at τ=1
	// for the first ExplorationPlies plies and at SmallTemperature afterwards.
	DecayTemperature bool
	ExplorationPlies int
	SmallTemperature float32

	// ExpansionNoise blends Dirichlet noise into the priors of every expanded node during self-play.
	ExpansionNoise  bool
	DirichletAlpha  float64
	DirichletWeight float32

	Reward Reward
	Seed   int64

	Logger zerolog.Logger
}

// DefaultConfig returns the settings used for self-play.
func DefaultConfig() Config {
	return Config{
		PUCT:             5,
		Budget:           400,
		Mode:             SelfPlay,
		ExplorationPlies: 8,
		SmallTemperature: 1e-3,
		DirichletAlpha:   0.3,
		DirichletWeight:  0.25,
		Reward:           DefaultReward(),
		Logger:           zerolog.Nop(),
	}
}

// EvaluationConfig returns the settings used when playing to win.
func EvaluationConfig() Config {
	c := DefaultConfig()
	c.Mode = Evaluation
	c.Budget = 200
	return c
}

func (c Config) IsValid() bool {
	return c.PUCT > 0 &&
		c.Budget > 0 &&
		c.ExplorationPlies >= 0 &&
		c.SmallTemperature > 0 &&
		c.DirichletAlpha > 0 &&
		c.DirichletWeight >= 0 && c.DirichletWeight < 1
}
