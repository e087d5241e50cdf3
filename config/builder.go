package config

import (
	"log/slog"

	"github.com/jpalmerr/superlists"
	"github.com/jpalmerr/superlists/wait"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger, if not nil, is passed through with [superlists.WithLogger].
func BuildOptions(cfg *Config, logger *slog.Logger) []superlists.Option {
	opts := []superlists.Option{
		superlists.WithPort(cfg.Port),
		superlists.WithTitle(cfg.Title),
	}

	if cfg.Database.Driver == DriverSQLite {
		opts = append(opts, superlists.WithSQLite(cfg.Database.Path))
	}

	if logger != nil {
		opts = append(opts, superlists.WithLogger(logger))
	}

	return opts
}

// NewWaiter builds the polling helper configured under wait.
//
// The wait settings are validated again, so values changed after [Parse]
// cannot produce an interval longer than the timeout.
func NewWaiter(cfg *Config) (*wait.Waiter, error) {
	if err := cfg.Wait.validate(); err != nil {
		return nil, err
	}
	return wait.New(
		wait.WithTimeout(cfg.Wait.Timeout.Duration()),
		wait.WithInterval(cfg.Wait.Interval.Duration()),
	)
}
