package reversi

import (
	"sync"

	dual "github.com/gorgonia/reversi/dualnet"
	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/mcts"
	"github.com/pkg/errors"
)

// An Agent is a player backed by a search tree and an evaluator.
type Agent struct {
	Name   string
	NN     *dual.Dual
	MCTS   *mcts.MCTS
	Player game.Player
	Enc    GameEncoder

	// Statistics
	Wins float32
	Loss float32
	Draw float32
	sync.Mutex

	inferer Inferer
}

// NewAgent creates an agent with a fresh search tree. An evaluator has to be attached with
// SwitchToInference, UseDummy or UseInferer before the agent can search.
func NewAgent(name string, nn *dual.Dual, enc GameEncoder, conf mcts.Config) *Agent {
	retVal := &Agent{
		Name: name,
		NN:   nn,
		Enc:  enc,
	}
	retVal.MCTS = mcts.New(conf, retVal)
	return retVal
}

// Configure replaces the search tree with one built from conf.
func (a *Agent) Configure(conf mcts.Config) { a.MCTS = mcts.New(conf, a) }

// SwitchToInference uses the inference mode neural network.
func (a *Agent) SwitchToInference() error {
	if a.NN == nil {
		return errors.Errorf("agent %q has no network", a.Name)
	}
	inf, err := dual.Infer(a.NN, false)
	if err != nil {
		return errors.WithMessage(err, "unable to build an inference network")
	}
	return a.UseInferer(inf)
}

// UseDummy makes the agent think every move is equally good. actionSpace excludes the pass move.
func (a *Agent) UseDummy(actionSpace int) error {
	return a.UseInferer(dummyInferer{outputSize: actionSpace + 1})
}

// UseInferer replaces the evaluator, closing the previous one.
func (a *Agent) UseInferer(inf Inferer) error {
	a.Lock()
	old := a.inferer
	a.inferer = inf
	a.Unlock()
	if old != nil {
		return old.Close()
	}
	return nil
}

// Infer encodes the game state and runs it through the agent's evaluator. This allows an *Agent to
// serve as the mcts.Inferencer of its own tree.
func (a *Agent) Infer(g game.State) (policy []float32, value float32, err error) {
	a.Lock()
	inf := a.inferer
	a.Unlock()
	if inf == nil {
		return nil, 0, errors.Errorf("agent %q has no evaluator", a.Name)
	}

	if policy, value, err = inf.Infer(a.Enc(g)); err != nil {
		if el, ok := inf.(ExecLogger); ok {
			return nil, 0, errors.Wrapf(err, "inference failed. Execution log:\n%v", el.ExecLog())
		}
		return nil, 0, err
	}
	return policy, value, nil
}

// Search searches the game state and returns a suggested move.
func (a *Agent) Search(g game.State) (game.Single, error) { return a.MCTS.Search(g) }

// Close closes the agent's evaluator.
func (a *Agent) Close() error {
	var allErrs manyErr
	if err := a.UseInferer(nil); err != nil {
		allErrs = append(allErrs, err)
	}
	a.MCTS.Reset()
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}

// WinRate is (wins + draws/2) over the games played since the last reset.
func (a *Agent) WinRate() float64 {
	a.Lock()
	defer a.Unlock()
	played := a.Wins + a.Loss + a.Draw
	if played == 0 {
		return 0
	}
	return float64(a.Wins+0.5*a.Draw) / float64(played)
}

func (a *Agent) resetStats() {
	a.Lock()
	a.Wins = 0
	a.Loss = 0
	a.Draw = 0
	a.Unlock()
}
