package reversi

import (
	"fmt"

	dual "github.com/gorgonia/reversi/dualnet"
	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// AZ is the top-level structure and the entry point of the API.
// It is a wrapper around the MCTS and the neural network that composes the algorithm.
// A is the best network so far. B is the candidate trained from A's self-play games.
type AZ struct {
	// state
	*Arena
	Statistics
	useDummy   bool
	generation int

	// config
	nnConf          dual.Config
	conf            Config
	updateThreshold float64
	maxExamples     int
	r               *rand.Rand
	log             zerolog.Logger
}

// New creates a new AlphaZero learner for the game g.
func New(g game.State, conf Config) (*AZ, error) {
	if err := conf.validate(); err != nil {
		return nil, err
	}

	nn := dual.New(conf.NNConf)
	if err := nn.Init(); err != nil {
		return nil, errors.WithMessage(err, "unable to initialize the network")
	}

	A := NewAgent("A", nn, conf.Encoder, conf.MCTSConf)
	B := NewAgent("B", nil, conf.Encoder, conf.ArenaConf)
	retVal := &AZ{
		Arena:      NewArena(g, A, B, conf.Name, conf.Logger),
		Statistics: makeStatistics(),
		useDummy:   true,

		nnConf:          conf.NNConf,
		conf:            conf,
		updateThreshold: conf.UpdateThreshold,
		maxExamples:     conf.MaxExamples,
		r:               rand.New(rand.NewSource(uint64(conf.Seed))),
		log:             conf.Logger.With().Str("az", conf.Name).Logger(),
	}
	return retVal, nil
}

// setupSelfPlay prepares A to play against itself. Until a network has been trained, the first epoch plays
// with the uniform evaluator.
func (a *AZ) setupSelfPlay() error {
	a.A.Configure(a.conf.MCTSConf)
	if a.useDummy {
		return a.A.UseDummy(a.game.ActionSpace())
	}
	return a.A.SwitchToInference()
}

// SelfPlay plays one episode with A on both sides and returns the examples it produced.
func (a *AZ) SelfPlay() ([]Example, error) {
	a.game.Reset()
	examples, winner, err := SelfPlay(a.game, a.A, a.conf.MCTSConf.Reward)
	if err != nil {
		return nil, err
	}
	a.log.Info().
		Int("epoch", a.epoch).
		Int("plies", a.game.MoveNumber()).
		Stringer("winner", colourName(winner)).
		Msg("self-play episode")
	return examples, nil
}

// Learn runs iters epochs. Each epoch plays episodes self-play games, trains a candidate on the examples for
// nniters iterations and pits it against the current best network over arenaGames games. The candidate is
// promoted if its win rate reaches the update threshold.
func (a *AZ) Learn(iters, episodes, nniters, arenaGames int) error {
	for a.epoch = 0; a.epoch < iters; a.epoch++ {
		if err := a.setupSelfPlay(); err != nil {
			return err
		}

		var examples []Example
		for e := 0; e < episodes; e++ {
			ex, err := a.SelfPlay()
			if err != nil {
				return errors.WithMessagef(err, "episode %d of epoch %d", e, a.epoch)
			}
			examples = append(examples, ex...)
		}
		a.r.Shuffle(len(examples), func(i, j int) { examples[i], examples[j] = examples[j], examples[i] })
		if a.maxExamples > 0 && len(examples) > a.maxExamples {
			examples = examples[:a.maxExamples]
		}

		Xs, policies, values, batches := a.prepareExamples(examples)
		if batches == 0 {
			a.log.Warn().Int("examples", len(examples)).Int("batch", a.nnConf.BatchSize).Msg("not enough examples to train on")
			continue
		}

		candidate, err := a.A.NN.Clone()
		if err != nil {
			return errors.WithMessage(err, "unable to clone the best network")
		}
		cost, err := dual.Train(candidate, Xs, policies, values, batches, nniters)
		if err != nil {
			return errors.WithMessagef(err, "training failed in epoch %d", a.epoch)
		}
		a.log.Info().Int("epoch", a.epoch).Int("examples", len(examples)).Float32("cost", cost).Msg("trained candidate")

		a.B.NN = candidate
		if err := a.B.SwitchToInference(); err != nil {
			return err
		}
		if err := a.A.SwitchToInference(); err != nil {
			return err
		}
		a.A.Configure(a.conf.ArenaConf)
		a.B.Configure(a.conf.ArenaConf)

		if _, err := a.Evaluate(arenaGames, a.conf.OutputEncoder); err != nil {
			return errors.WithMessagef(err, "arena failed in epoch %d", a.epoch)
		}
		a.update(fmt.Sprintf("%v-gen%d", a.name, a.generation), a.A)

		rate := a.B.WinRate()
		a.log.Info().Int("epoch", a.epoch).Float64("candidate", rate).Float64("threshold", a.updateThreshold).Msg("arena")
		if rate >= a.updateThreshold {
			a.A.NN, a.B.NN = a.B.NN, a.A.NN
			a.useDummy = false
			a.generation++
			a.log.Info().Int("generation", a.generation).Msg("candidate promoted")
		}
	}
	if a.conf.OutputEncoder != nil {
		return a.conf.OutputEncoder.Flush()
	}
	return nil
}

// Generation is the number of times a candidate has been promoted.
func (a *AZ) Generation() int { return a.generation }

// Close closes both agents.
func (a *AZ) Close() error {
	var allErrs manyErr
	for _, ag := range []*Agent{a.A, a.B} {
		if err := ag.Close(); err != nil {
			allErrs = append(allErrs, err)
		}
	}
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}

// prepareExamples packs the examples into tensors, dropping whatever does not fill a whole batch.
func (a *AZ) prepareExamples(examples []Example) (Xs, Policies, Values *tensor.Dense, batches int) {
	batches = len(examples) / a.nnConf.BatchSize
	total := batches * a.nnConf.BatchSize
	if batches == 0 {
		return nil, nil, nil, 0
	}

	var XsBacking, PolicyBacking, ValueBacking []float32
	for i, ex := range examples {
		if i >= total {
			break
		}
		XsBacking = append(XsBacking, ex.Board...)
		PolicyBacking = append(PolicyBacking, ex.Policy...)
		ValueBacking = append(ValueBacking, ex.Value)
	}

	actionSpace := a.nnConf.ActionSpace
	Xs = tensor.New(tensor.WithBacking(XsBacking), tensor.WithShape(total, a.nnConf.Features, a.nnConf.Height, a.nnConf.Width))
	Policies = tensor.New(tensor.WithBacking(PolicyBacking), tensor.WithShape(total, actionSpace))
	Values = tensor.New(tensor.WithBacking(ValueBacking), tensor.WithShape(total))
	return
}
