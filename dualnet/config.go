package dual

import "github.com/rs/zerolog"

// Config configures the neural network
type Config struct {
	K            int     // number of filters
	SharedLayers int     // number of shared residual blocks
	FC           int     // fc layer width
	L2           float64 // L2 regularization
	LearnRate    float64

	BatchSize     int // batch size
	Width, Height int // board size
	Features      int // feature counts

	ActionSpace int  // policy width: one entry per cell, plus one for passing
	FwdOnly     bool // is this a fwd only graph?
	Seed        int64

	Logger zerolog.Logger
}

// DefaultConf returns a configuration for an m×n board. Four feature planes are expected: black stones,
// white stones, empty cells and the side to move.
func DefaultConf(m, n, actionSpace int) Config {
	k := round((m * n) / 3)
	return Config{
		K:            k,
		SharedLayers: m / 2,
		FC:           2 * k,
		L2:           1e-4,
		LearnRate:    0.01,

		BatchSize:   64,
		Width:       n,
		Height:      m,
		Features:    4,
		ActionSpace: actionSpace,
		Logger:      zerolog.Nop(),
	}
}

func (conf Config) IsValid() bool {
	return conf.K >= 1 &&
		conf.ActionSpace >= conf.Width*conf.Height &&
		conf.SharedLayers >= 0 &&
		conf.FC > 1 &&
		conf.BatchSize >= 1 &&
		conf.LearnRate > 0 &&
		conf.Features > 0
}

func round(a int) int {
	n := a - 1
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++

	lt := n / 2
	if (a - lt) < (n - a) {
		return lt
	}
	return n
}
