package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/config"
)

type testConfig struct {
	Secret  string        `env:"TEST_GUARD_SECRET,required"`
	Window  time.Duration `env:"TEST_GUARD_WINDOW" envDefault:"1m"`
	MaxReqs int           `env:"TEST_GUARD_MAX" envDefault:"100"`
}

func TestLoad(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[testConfig](nil)
		assert.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("missing required variable", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("defaults and required", func(t *testing.T) {
		t.Setenv("TEST_GUARD_SECRET", "s3cret")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "s3cret", cfg.Secret)
		assert.Equal(t, time.Minute, cfg.Window)
		assert.Equal(t, 100, cfg.MaxReqs)
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		t.Setenv("TEST_GUARD_SECRET", "s3cret")
		t.Setenv("TEST_GUARD_WINDOW", "30s")
		t.Setenv("TEST_GUARD_MAX", "5")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, 30*time.Second, cfg.Window)
		assert.Equal(t, 5, cfg.MaxReqs)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on missing required variable", func(t *testing.T) {
		assert.Panics(t, func() {
			var cfg testConfig
			config.MustLoad(&cfg)
		})
	})
}
