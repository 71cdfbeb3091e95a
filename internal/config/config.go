// Package config loads the service configuration from the environment. An
// invalid configuration is a fatal startup condition: the process must not
// serve traffic with, for instance, a weak JWT signing key.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// MinSigningKeyLength is the minimum accepted JWT signing key length.
const MinSigningKeyLength = 32

// Config holds every startup setting.
type Config struct {
	HTTPAddr         string `env:"AUTHD_HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN      string `env:"AUTHD_DATABASE_DSN" envDefault:"file:authd.db?cache=shared"`
	LogLevel         string `env:"AUTHD_LOG_LEVEL" envDefault:"info"`
	BcryptCost       int    `env:"AUTHD_BCRYPT_COST" envDefault:"12"`
	DeterministicIDs bool   `env:"AUTHD_DETERMINISTIC_IDS" envDefault:"false"`

	JWT     JWT     `envPrefix:"AUTHD_JWT_"`
	Lockout Lockout `envPrefix:"AUTHD_LOCKOUT_"`
}

// JWT configures token issuance and verification.
type JWT struct {
	SigningKey      string   `env:"SIGNING_KEY"`
	Issuer          string   `env:"ISSUER" envDefault:"authd"`
	Audience        []string `env:"AUDIENCE" envSeparator:"," envDefault:"authd.clients"`
	DurationMinutes int      `env:"DURATION_MINUTES" envDefault:"60"`
}

// Duration returns the configured token lifetime.
func (j JWT) Duration() time.Duration {
	return time.Duration(j.DurationMinutes) * time.Minute
}

// Lockout configures the failed-login lockout policy.
type Lockout struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"WINDOW" envDefault:"5m"`
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants that make the configuration servable.
func (c *Config) Validate() error {
	if len(c.JWT.SigningKey) < MinSigningKeyLength {
		return goerrors.New(
			"JWT Key não configurada ou inválida. A chave deve ter pelo menos 32 caracteres.",
			goerrors.CategoryBadInput,
		).WithTextCode("CONFIG_SIGNING_KEY_INVALID")
	}

	if c.JWT.DurationMinutes <= 0 {
		return goerrors.New("JWT token duration must be positive", goerrors.CategoryBadInput).
			WithTextCode("CONFIG_TOKEN_DURATION_INVALID")
	}

	if c.Lockout.MaxAttempts <= 0 || c.Lockout.Window <= 0 {
		return goerrors.New("lockout threshold and window must be positive", goerrors.CategoryBadInput).
			WithTextCode("CONFIG_LOCKOUT_INVALID")
	}

	return nil
}
