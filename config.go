package dragonball

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds the client runtime options, loaded from the environment.
type Config struct {
	// BaseURL is the backend origin, without a trailing slash. Empty means
	// relative requests against the host's own origin are expected, so the
	// default points at the local dev server instead.
	BaseURL string `env:"DRAGONBALL_API_URL" envDefault:"http://localhost:8080"`
	// RequestTimeout bounds every API call.
	RequestTimeout time.Duration `env:"DRAGONBALL_HTTP_TIMEOUT" envDefault:"10s"`
	// StorePath, when set, selects the durable key-value backend file. Empty
	// keeps sessions in memory only.
	StorePath string `env:"DRAGONBALL_STORE_PATH"`
}

// LoadConfig reads Config from the environment, honoring a .env file when
// one is present in the working directory.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment")
	}
	return cfg, nil
}
