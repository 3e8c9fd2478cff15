// Package config holds the runtime settings shared by every command. Values
// come from flags, then the environment, then the defaults below.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/logger"
	"github.com/joho/godotenv"

	"advent/internal/calendar"
)

// DefaultEnvFile is read at startup when present.
const DefaultEnvFile = ".env"

// Config is embedded into the kong command root.
type Config struct {
	Addr     string  `help:"HTTP listen address." env:"ADVENT_ADDR" default:":8080"`
	DB       string  `help:"SQLite database file." env:"ADVENT_DB,DATABASE_PATH" default:"data/advent.db"`
	Timezone string  `help:"IANA zone the calendar doors open in." env:"ADVENT_TIMEZONE" default:"Europe/Berlin"`
	SeedFile string  `help:"YAML prize catalog used to seed an empty database." env:"ADVENT_SEED_FILE"`
	LogFile  string  `help:"Also write logs to this file (rotated)." env:"ADVENT_LOG_FILE"`
	Verbose  bool    `help:"Log to stderr as well." short:"v" env:"ADVENT_VERBOSE"`
	SpinRate float64 `help:"Requests per second allowed on mutating endpoints per client (0 disables)." env:"ADVENT_SPIN_RATE" default:"5"`
	Memory   bool    `help:"Keep state in memory only; nothing survives a restart." env:"ADVENT_MEMORY"`
}

// Validate checks values kong cannot check on its own.
func (c Config) Validate() error {
	if c.SpinRate < 0 {
		return fmt.Errorf("spin rate must not be negative, got %v", c.SpinRate)
	}
	if _, err := calendar.LoadGate(c.Timezone); err != nil {
		return err
	}
	if !c.Memory && c.DB == "" {
		return errors.New("database path is empty")
	}
	return nil
}

// LoadDotEnv reads each file into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
		logger.Infof("Loaded environment from %s", p)
	}
	return nil
}
