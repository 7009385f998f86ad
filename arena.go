package reversi

import (
	"github.com/gorgonia/reversi/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Arena pits two agents against each other on a game.
type Arena struct {
	game game.State
	A, B *Agent

	// state
	currentPlayer *Agent
	log           zerolog.Logger

	// only relevant to training
	name       string
	epoch      int // training epoch
	gameNumber int // which game is this in
}

// NewArena makes an arena given a game and two agents.
func NewArena(g game.State, a, b *Agent, name string, logger zerolog.Logger) *Arena {
	if name == "" {
		name = "UNKNOWN GAME"
	}
	return &Arena{
		game: g,
		A:    a,
		B:    b,
		name: name,
		log:  logger.With().Str("arena", name).Logger(),
	}
}

// Play plays a game from the starting position and returns the winner. If it is a draw, the returned
// player is None. A takes black in even numbered games and white in odd numbered ones.
//
// enc, if not nil, is given the arena after every ply.
func (a *Arena) Play(enc OutputEncoder) (winner game.Player, err error) {
	a.game.Reset()
	if a.gameNumber%2 == 0 {
		a.A.Player = game.Player(game.Black)
		a.B.Player = game.Player(game.White)
		a.currentPlayer = a.A
	} else {
		a.A.Player = game.Player(game.White)
		a.B.Player = game.Player(game.Black)
		a.currentPlayer = a.B
	}
	defer a.A.MCTS.Reset()
	defer a.B.MCTS.Reset()

	var ended bool
	for ended, winner = a.game.Ended(); !ended; ended, winner = a.game.Ended() {
		var best game.Single
		if best, err = a.currentPlayer.Search(a.game); err != nil {
			return game.Player(game.None), errors.WithMessagef(err, "%v (%v) failed to move", a.currentPlayer.Name, a.currentPlayer.Player)
		}
		a.log.Debug().
			Str("agent", a.currentPlayer.Name).
			Stringer("player", colourName(a.currentPlayer.Player)).
			Int32("move", int32(best)).
			Msg("ply")

		if err = a.game.Apply(game.PlayerMove{Player: a.currentPlayer.Player, Single: best}); err != nil {
			return game.Player(game.None), err
		}
		a.switchPlayer()
		if enc != nil {
			if err := enc.Encode(a); err != nil {
				a.log.Warn().Err(err).Msg("unable to encode ply")
			}
		}
	}

	switch winner {
	case game.Player(game.None):
		a.A.Draw++
		a.B.Draw++
	case a.A.Player:
		a.A.Wins++
		a.B.Loss++
	case a.B.Player:
		a.B.Wins++
		a.A.Loss++
	}
	a.log.Info().
		Int("game", a.gameNumber).
		Stringer("winner", colourName(winner)).
		Float32("black", a.game.Score(game.Player(game.Black))).
		Float32("white", a.game.Score(game.Player(game.White))).
		Msg("game over")
	return winner, nil
}

// Evaluate plays n games, alternating colours, and returns the win rate (wins + draws/2)/n of A.
func (a *Arena) Evaluate(n int, enc OutputEncoder) (float64, error) {
	if n < 1 {
		return 0, errors.Errorf("cannot evaluate over %d games", n)
	}
	a.A.resetStats()
	a.B.resetStats()
	for a.gameNumber = 0; a.gameNumber < n; a.gameNumber++ {
		if _, err := a.Play(enc); err != nil {
			return 0, err
		}
	}
	return float64(a.A.Wins+0.5*a.A.Draw) / float64(n), nil
}

func (a *Arena) Epoch() int                  { return a.epoch }
func (a *Arena) GameNumber() int             { return a.gameNumber }
func (a *Arena) Name() string                { return a.name }
func (a *Arena) Score(p game.Player) float64 { return float64(a.game.Score(p)) }
func (a *Arena) State() game.State           { return a.game }

func (a *Arena) switchPlayer() {
	switch a.currentPlayer {
	case a.A:
		a.currentPlayer = a.B
	case a.B:
		a.currentPlayer = a.A
	}
}

// colourName adapts a player to a fmt.Stringer for structured logging.
type colourName game.Player

func (c colourName) String() string {
	switch game.Colour(c) {
	case game.Black:
		return "black"
	case game.White:
		return "white"
	}
	return "none"
}
