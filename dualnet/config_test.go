package dual

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	// round snaps to the nearer power of two, preferring the larger one on ties
	testCases := []struct{ a, want int }{
		{0, 0},
		{1, 1},
		{3, 4},
		{6, 8},
		{10, 8},
		{21, 16}, // an 8×8 board gets 16 filters
		{33, 32},
		{100, 128},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, round(tc.a), "round(%d)", tc.a)
	}
}

func TestConfig_IsValid(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *Config)
		valid  bool
	}{
		{"default", func(c *Config) {}, true},
		{"no filters", func(c *Config) { c.K = 0 }, false},
		{"no learning rate", func(c *Config) { c.LearnRate = 0 }, false},
		{"empty batch", func(c *Config) { c.BatchSize = 0 }, false},
		{"no pass slot needed", func(c *Config) { c.ActionSpace = 64 }, true},
		{"narrow fc", func(c *Config) { c.FC = 1 }, false},
	}
	for _, tc := range testCases {
		conf := DefaultConf(8, 8, 65)
		tc.modify(&conf)
		assert.Equal(t, tc.valid, conf.IsValid(), tc.name)
	}
}
