// Package common builds the shared dependencies for CLI commands.
package common

import (
	"fmt"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/logger"
)

// Deps holds the dependencies every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// BuildDeps loads and validates configuration, then constructs the
// logger. Configuration errors are fatal here, before any network
// activity starts.
func BuildDeps(cfgFile string, debug bool) (*Deps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if debug {
		cfg.App.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// FlagReader is the subset of pflag.FlagSet the commands read.
type FlagReader interface {
	GetString(name string) (string, error)
	GetBool(name string) (bool, error)
}

// BuildFromFlags builds deps from the root command's persistent flags.
func BuildFromFlags(flags FlagReader) (*Deps, error) {
	cfgFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	debug, err := flags.GetBool("debug")
	if err != nil {
		return nil, err
	}
	return BuildDeps(cfgFile, debug)
}
