// internal/config/config.go
//
// Typed runtime configuration. Values come from the environment, with a
// development .env file loaded first when present.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every tunable the server reads from the environment.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DBPath   string `env:"DB_PATH" envDefault:"./data/legends.db"`

	// Reference data files; embedded defaults are used when missing.
	RosterFile string `env:"ROSTER_FILE" envDefault:"./data/touch11_players.json"`
	WordsFile  string `env:"WORDS_FILE" envDefault:"./data/wordle.txt"`

	// Reference UTC offset for the game day (Colombia).
	OffsetHours int `env:"TZ_OFFSET_HOURS" envDefault:"-5"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"touch11_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	Production     bool   `env:"PRODUCTION" envDefault:"false"`
}

// Load reads .env (best effort) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}
