package internal

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything parkctl needs to reach the service.
type Config struct {
	// BaseURL of the eldorado API, e.g. https://parking.example.com/api/v1.
	BaseURL string
	// Secret encrypts the session file at rest (at least 32 characters).
	Secret string
	// Timeout bounds every API call, the refresh exchange included.
	Timeout time.Duration
}

const defaultTimeout = 30 * time.Second

// LoadConfig reads ~/.parkctl/.env (if present) and then the environment.
// Flags handled by the commands override the result.
func LoadConfig() Config {
	home, err := os.UserHomeDir()
	if err == nil {
		// Missing file is fine; env vars still apply.
		_ = godotenv.Load(filepath.Join(home, ".parkctl", ".env"))
	}

	cfg := Config{
		BaseURL: os.Getenv("PARKCTL_API_URL"),
		Secret:  os.Getenv("PARKCTL_SECRET"),
		Timeout: defaultTimeout,
	}
	if raw := os.Getenv("PARKCTL_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Validate checks that the config is usable for authenticated calls.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("API URL not set (use --api-url or PARKCTL_API_URL)")
	}
	if len(c.Secret) < 32 {
		return errors.New("encryption secret must be at least 32 characters (use --secret or PARKCTL_SECRET)")
	}
	return nil
}
