package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/go-lexicon/config"
	"github.com/gcbaptista/go-lexicon/internal/engine"
	"github.com/gcbaptista/go-lexicon/internal/logging"
	"github.com/gcbaptista/go-lexicon/internal/notify"
	"github.com/gcbaptista/go-lexicon/internal/persistence"
)

const version = "1.0.0"

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrLexicon is a parent error for all command errors.
var ErrLexicon = errors.New("lexicon")

func newLexiconApp() *cli.App {
	return &cli.App{
		Name:    filepath.Base(os.Args[0]),
		Usage:   "French dictionary service with vocabulary practice.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from `FILE`",
				Aliases: []string{"c"},
				EnvVars: []string{"CONFIG_PATH"},
			},
			&cli.StringFlag{
				Name:  "source-dir",
				Usage: "load corpus partitions from `DIR`",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "keep progress, history and snapshots in `DIR`",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			lookupCommand,
			statsCommand,
		},
	}
}

// runtime is what every command needs: configuration, a logger, the store
// and the dictionary built on top of it.
type runtime struct {
	cfg   *config.Config
	log   *slog.Logger
	store persistence.Store
	dict  *engine.Dictionary
}

func (r *runtime) Close() {
	r.dict.Close()
	if err := r.store.Close(); err != nil {
		r.log.Warn("failed to close store", slog.String("error", err.Error()))
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_PATH", path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if dir := c.String("source-dir"); dir != "" {
		cfg.Dictionary.SourceDir = dir
		cfg.Dictionary.BaseURL = ""
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Store.DataDir = dir
		cfg.Dictionary.SnapshotDir = dir
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLexicon, err)
	}
	return cfg, nil
}

func newRuntime(c *cli.Context, sink notify.Sink) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(cfg.Log)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := persistence.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	sinks := notify.Multi{notify.NewLogSink(logger)}
	if sink != nil {
		sinks = append(sinks, sink)
	}

	dict, err := engine.Open(ctx, cfg, store, sinks, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &runtime{cfg: cfg, log: logger, store: store, dict: dict}, nil
}

// bringUp restores the snapshot when one is configured and loads the
// corpus otherwise.
func (r *runtime) bringUp(ctx context.Context) error {
	restored, err := r.dict.RestoreSnapshot()
	if err != nil {
		r.log.Warn("ignoring index snapshot", slog.String("error", err.Error()))
	}
	if restored {
		return nil
	}
	return r.dict.Load(ctx)
}
