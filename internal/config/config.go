// internal/config/config.go
//
// Process configuration read from the environment (and a local .env file).
// Every field has a default so `go run .` works with no setup.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/pheasant/internal/game"
)

// Opponent kinds accepted by OPPONENT.
const (
	OpponentDictionary = "dictionary"
	OpponentOpenAI     = "openai"
	OpponentFallback   = "openai+dictionary"
)

// Config is the full server configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"5175"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	DBPath         string `env:"DB_PATH" envDefault:"./data/app.db"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"pheasant_token"`

	MaxLives      int `env:"MAX_LIVES" envDefault:"5"`
	MinWordLength int `env:"MIN_WORD_LENGTH" envDefault:"3"`

	Opponent        string        `env:"OPPONENT" envDefault:"dictionary"`
	OpponentTimeout time.Duration `env:"OPPONENT_TIMEOUT" envDefault:"15s"`
	OpponentDelay   time.Duration `env:"OPPONENT_DELAY" envDefault:"0s"`
	WordsFile       string        `env:"WORDS_FILE"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Opponent = strings.ToLower(strings.TrimSpace(cfg.Opponent))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env.Parse cannot.
func (c Config) Validate() error {
	if err := c.GameDefaults().Validate(); err != nil {
		return err
	}
	if c.JWTExpiresDays < 1 {
		return errors.New("config: JWT_EXPIRES_DAYS must be at least 1")
	}
	if c.OpponentTimeout <= 0 {
		return errors.New("config: OPPONENT_TIMEOUT must be positive")
	}
	if c.OpponentDelay < 0 {
		return errors.New("config: OPPONENT_DELAY must not be negative")
	}
	switch c.Opponent {
	case OpponentDictionary:
	case OpponentOpenAI, OpponentFallback:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config: OPPONENT=%s requires OPENAI_API_KEY", c.Opponent)
		}
	default:
		return fmt.Errorf("config: unknown OPPONENT %q", c.Opponent)
	}
	return nil
}

// Production reports whether cookies must be marked Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// GameDefaults are the rules used when a client starts a game without overrides.
func (c Config) GameDefaults() game.Config {
	return game.Config{
		MaxLives:        c.MaxLives,
		MinWordLength:   c.MinWordLength,
		OpponentTimeout: c.OpponentTimeout,
	}
}

// JWTTTL is the lifetime of an auth token.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
