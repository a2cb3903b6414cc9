// Package config loads solver settings from an optional config file
// and environment variables, in that order of increasing priority —
// the same viper-backed layering the rest of the example pack uses for
// service configuration. CLI flags are layered on top by cmd/connect4,
// not by this package.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/PascalPons/connect4/internal/position"
	"github.com/PascalPons/connect4/internal/solver"
)

// Config holds every setting the CLI driver and the analysis server
// need. Width and Height are present because SPEC_FULL.md's
// configuration surface names them, but they are not actually
// adjustable: Load rejects any value other than the canonical board
// (see internal/position), since the solver's bitboard layout, key
// widths, and score bounds are all compiled in for 7x6 — dynamic
// board sizing is an explicit non-goal.
type Config struct {
	Weak         bool          `mapstructure:"weak"`
	Analyze      bool          `mapstructure:"analyze"`
	BookPath     string        `mapstructure:"book_path"`
	ServeAddr    string        `mapstructure:"serve_addr"`
	LogSearches  bool          `mapstructure:"log_searches"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	TTLogSize    int           `mapstructure:"tt_log_size"`
	SolveTimeout time.Duration `mapstructure:"solve_timeout"`
}

// Default returns the configuration a driver or server starts from
// absent any file, environment, or flag overrides.
func Default() Config {
	return Config{
		Weak:         false,
		Analyze:      false,
		BookPath:     "7x6.book",
		ServeAddr:    "",
		LogSearches:  false,
		Width:        position.Width,
		Height:       position.Height,
		TTLogSize:    solver.DefaultTableLogSize,
		SolveTimeout: 30 * time.Second,
	}
}

// Load reads an optional file at path (if non-empty) and environment
// variables prefixed CONNECT4_, layering them over Default(). A
// missing file is not an error: Load falls back to defaults and
// env vars, matching the solver's general "degrade, don't fail"
// posture toward optional inputs (see SPEC_FULL.md's error-handling
// section).
func Load(path string) (Config, error) {
	v := viper.New()
	cfg := Default()
	v.SetDefault("weak", cfg.Weak)
	v.SetDefault("analyze", cfg.Analyze)
	v.SetDefault("book_path", cfg.BookPath)
	v.SetDefault("serve_addr", cfg.ServeAddr)
	v.SetDefault("log_searches", cfg.LogSearches)
	v.SetDefault("width", cfg.Width)
	v.SetDefault("height", cfg.Height)
	v.SetDefault("tt_log_size", cfg.TTLogSize)
	v.SetDefault("solve_timeout", cfg.SolveTimeout)

	v.SetEnvPrefix("connect4")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			_, notFoundErr := err.(viper.ConfigFileNotFoundError)
			if !notFoundErr && !os.IsNotExist(err) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Width != position.Width || cfg.Height != position.Height {
		return cfg, fmt.Errorf("config: board size %dx%d is not supported, this build only solves %dx%d", cfg.Width, cfg.Height, position.Width, position.Height)
	}
	if cfg.TTLogSize <= 0 {
		return cfg, fmt.Errorf("config: tt_log_size must be positive, got %d", cfg.TTLogSize)
	}
	return cfg, nil
}
