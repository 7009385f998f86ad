package mcts

import "github.com/gorgonia/reversi/game"

// Reward is the outcome scoring policy. It is used to score terminal leaves during the search and to
// label self-play examples, so both see the same numbers.
//
// With Custom unset a win is worth Normal and a loss -Normal. With Custom set, each colour gets its own
// magnitudes, which lets black's first move advantage be compensated.
type Reward struct {
	Custom bool
	Normal float32

	BlackWin, BlackLose float32
	WhiteWin, WhiteLose float32
}

func DefaultReward() Reward {
	return Reward{
		Normal:    1,
		BlackWin:  1,
		BlackLose: -1.5,
		WhiteWin:  1.5,
		WhiteLose: -1,
	}
}

// Value is the reward player receives when the game ends with winner. A draw (game.None) is always 0.
func (r Reward) Value(winner, player game.Player) float32 {
	if game.Colour(winner) == game.None {
		return 0
	}
	won := winner == player
	if !r.Custom {
		if won {
			return r.Normal
		}
		return -r.Normal
	}
	switch player {
	case Black:
		if won {
			return r.BlackWin
		}
		return r.BlackLose
	case White:
		if won {
			return r.WhiteWin
		}
		return r.WhiteLose
	}
	return 0
}
