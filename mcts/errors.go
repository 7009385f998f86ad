package mcts

import "github.com/pkg/errors"

var (
	// ErrEvaluator is returned when the Inferencer hands back something the search cannot use.
	ErrEvaluator = errors.New("evaluator contract violated")
	// ErrNoMoves is returned when asked to search a finished game.
	ErrNoMoves = errors.New("no moves to search")
	// ErrConfig is returned when Search is called with settings that fail Config.IsValid.
	ErrConfig = errors.New("invalid search configuration")
)
