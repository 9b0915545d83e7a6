package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Load populates the configuration struct from environment variables using
// `env:"..."` struct tags. A .env file in the working directory is loaded
// once per process before the first parse; its absence is not an error.
//
// Required variables (tagged `env:"NAME,required"`) that are missing cause
// an error joined with ErrParsingConfig, so misconfiguration fails at
// startup rather than on first request.
//
// Example:
//
//	type GuardConfig struct {
//	    JWTSecret string        `env:"JWT_SECRET,required"`
//	    TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
//	}
//
//	var cfg GuardConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvLoaded.Do(func() {
		// The .env file might not exist and that's ok.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
