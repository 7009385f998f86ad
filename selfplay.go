package reversi

import (
	"github.com/chewxy/math32"
	"github.com/gorgonia/reversi/game"
	"github.com/gorgonia/reversi/mcts"
	"github.com/pkg/errors"
)

// SelfPlay plays g to the end with the agent on both sides and returns one example per ply.
// The agent's tree must be in self-play mode. g is played in place.
//
// Each example is labelled with reward.Value(winner, p), where p is the player who moved at that ply.
func SelfPlay(g game.State, a *Agent, reward mcts.Reward) (examples []Example, winner game.Player, err error) {
	defer a.MCTS.Reset()

	var ended bool
	for ended, winner = g.Ended(); !ended; ended, winner = g.Ended() {
		player := g.ToMove()
		a.Player = player

		var best game.Single
		if best, err = a.Search(g); err != nil {
			return nil, winner, errors.WithMessagef(err, "search failed at ply %d", g.MoveNumber())
		}

		policy := a.MCTS.Policies()
		if policy == nil {
			return nil, winner, errors.Errorf("self-play needs a %v search", mcts.SelfPlay)
		}
		if validPolicies(policy) {
			examples = append(examples, Example{
				Board:  a.Enc(g),
				Policy: policy,
				Player: player,
			})
		}

		if err = g.Apply(game.PlayerMove{Player: player, Single: best}); err != nil {
			return nil, winner, err
		}
	}

	for i := range examples {
		examples[i].Value = reward.Value(winner, examples[i].Player)
	}
	return examples, winner, nil
}

func validPolicies(policy []float32) bool {
	for _, v := range policy {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
