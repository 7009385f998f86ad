package mcts

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"
)

/*
Here lies the majority of the MCTS search code, while node.go and tree.go handles the data structure stuff.

Each playout is
	SELECT, replaying the selected moves on a clone of the position,
	EXPAND and EVALUATE with the network (or score the finished game),
	BACKUP with the sign flipping at every level.
*/

// Search runs Budget playouts from state and returns the move to play.
//
// The returned move is not applied to state. The tree is kept (self-play) or discarded (evaluation)
// according to Mode, and is discarded anyway if the next search is not on the position the chosen move
// leads to.
func (t *MCTS) Search(state game.State) (retVal game.Single, err error) {
	t.Lock()
	defer t.Unlock()

	if !t.Config.IsValid() {
		return Pass, errors.WithMessagef(ErrConfig, "PUCT %v, budget %d, small temperature %v", t.PUCT, t.Budget, t.SmallTemperature)
	}
	if ended, _ := state.Ended(); ended {
		return Pass, errors.WithMessage(ErrNoMoves, "game has ended")
	}
	t.prepareRoot(state)

	for i := 0; i < t.Budget; i++ {
		if err = t.playout(state); err != nil {
			t.log.Error().Err(err).Int("playout", i).Int("move_number", state.MoveNumber()).Msg("search aborted")
			t.reset()
			return Pass, err
		}
		t.playouts++
	}

	if retVal, err = t.bestMove(state); err != nil {
		t.reset()
		return Pass, err
	}

	root := t.nodeFromNaughty(t.root)
	t.log.Debug().
		Int("move_number", state.MoveNumber()).
		Stringer("mode", t.Mode).
		Int("nodes", len(t.nodes)-len(t.freelist)).
		Uint32("root_visits", root.visits).
		Float32("root_q", root.Q()).
		Int32("best", int32(retVal)).
		Msg("search complete")

	t.updateRoot(state, retVal)
	return retVal, nil
}

// playout runs one selection, expansion and backup cycle.
func (t *MCTS) playout(state game.State) error {
	current := state.Clone()
	n := t.root
	for len(t.children[n]) > 0 {
		n = t.selectChild(n)
		pm := game.PlayerMove{Player: current.ToMove(), Single: t.nodes[n].move}
		if err := current.Apply(pm); err != nil {
			return errors.Wrapf(err, "tree and board out of sync at node %d", n)
		}
	}

	var value float32
	if ended, winner := current.Ended(); ended {
		value = t.Reward.Value(winner, current.ToMove())
	} else {
		var err error
		if value, err = t.expandAndEvaluate(n, current); err != nil {
			return err
		}
	}
	t.backup(n, value)
	return nil
}

// expandAndEvaluate asks the network about state, creates one child of n per legal move and returns the
// value of state for the player to move.
func (t *MCTS) expandAndEvaluate(n naughty, state game.State) (value float32, err error) {
	var policy []float32 // ActionSpace + 1
	if policy, value, err = t.nn.Infer(state); err != nil {
		return 0, errors.Wrap(err, "inference failed")
	}
	actionSpace := state.ActionSpace()
	if err = checkInference(policy, value, actionSpace+1); err != nil {
		return 0, err
	}

	moves := state.LegalMoves()
	priors := make([]float32, len(moves))
	for i, m := range moves {
		if m.IsPass() {
			priors[i] = policy[actionSpace]
			continue
		}
		priors[i] = policy[m]
	}

	if legalSum := vecf32.Sum(priors); legalSum > math32.SmallestNonzeroFloat32 {
		// re normalize
		vecf32.Scale(priors, 1/legalSum)
	} else {
		prob := 1 / float32(len(priors))
		for i := range priors {
			priors[i] = prob
		}
	}

	if t.ExpansionNoise && t.Mode == SelfPlay {
		t.addNoise(priors)
	}

	for i, m := range moves {
		kid := t.alloc(m, priors[i], n)
		t.children[n] = append(t.children[n], kid)
	}
	return value, nil
}

// backup records v, the value of the leaf position for the player to move there. The leaf node holds
// the move that led to that position, made by the opponent, so it receives -v. The sign then flips
// at every level up to the root.
func (t *MCTS) backup(leaf naughty, v float32) {
	v = -v
	for n := leaf; n.isValid(); n = t.nodes[n].parent {
		t.nodes[n].update(v)
		v = -v
	}
}

// bestMove turns the root's visit counts into a move. In self-play the τ=1 distribution is recorded as
// the training label.
func (t *MCTS) bestMove(state game.State) (game.Single, error) {
	children := t.children[t.root]
	if len(children) == 0 {
		return Pass, errors.WithMessage(ErrNoMoves, "root has not been expanded")
	}

	visits := make([]float32, len(children))
	for i, kid := range children {
		visits[i] = float32(t.nodes[kid].visits)
	}
	label := visitDistribution(visits, 1)

	var probs []float32
	switch {
	case t.Mode == Evaluation:
		probs = visitDistribution(visits, t.SmallTemperature)
	case t.DecayTemperature && state.MoveNumber() >= t.ExplorationPlies:
		probs = visitDistribution(visits, t.SmallTemperature)
	case t.DecayTemperature:
		probs = label
	default:
		probs = make([]float32, len(label))
		copy(probs, label)
		t.addNoise(probs)
	}

	if t.Mode == SelfPlay {
		actionSpace := state.ActionSpace()
		t.policies = make([]float32, actionSpace+1)
		for i, kid := range children {
			m := t.nodes[kid].move
			if m.IsPass() {
				t.policies[actionSpace] = label[i]
				continue
			}
			t.policies[m] = label[i]
		}
	} else {
		t.policies = nil
	}

	best := sample(probs, t.rand.Float32())
	return t.nodes[children[best]].move, nil
}

// prepareRoot reuses the tree if it describes state. Otherwise a fresh root is made.
func (t *MCTS) prepareRoot(state game.State) {
	if t.root.isValid() && t.expected != nil && t.expected.Eq(state) {
		t.log.Debug().Int("reused_nodes", t.countChildren(t.root)).Msg("reusing tree")
		return
	}
	t.reset()
	t.root = t.alloc(state.LastMove().Single, 1, nilNode)
}

// updateRoot decides what to keep of the tree after move has been chosen from state.
func (t *MCTS) updateRoot(state game.State, move game.Single) {
	t.expected = nil
	if t.Mode != SelfPlay {
		t.reset()
		return
	}

	kid := t.findChild(t.root, move)
	next := state.Clone()
	if err := next.Apply(game.PlayerMove{Player: state.ToMove(), Single: move}); err != nil || !kid.isValid() {
		t.log.Warn().Err(err).Int32("move", int32(move)).Msg("cannot reuse tree")
		t.reset()
		return
	}
	t.cleanup(t.root, kid)
	t.expected = next
}

// checkInference validates what came out of the network.
func checkInference(policy []float32, value float32, size int) error {
	if len(policy) != size {
		return errors.WithMessage(ErrEvaluator, fmt.Sprintf("expected a policy of %d. Got %d", size, len(policy)))
	}
	for i, p := range policy {
		if math32.IsNaN(p) || math32.IsInf(p, 0) || p < 0 {
			return errors.WithMessage(ErrEvaluator, fmt.Sprintf("policy[%d] is %v", i, p))
		}
	}
	if math32.IsNaN(value) || value < -1 || value > 1 {
		return errors.WithMessage(ErrEvaluator, fmt.Sprintf("value %v is outside [-1, 1]", value))
	}
	return nil
}
