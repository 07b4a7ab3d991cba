package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"podcaster/internal/config"
	"podcaster/internal/logging"
	"podcaster/internal/queue"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// openStore opens the queue for a one-shot command. The caller closes it.
func (c *commandContext) openStore() (*config.Config, *queue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open queue: %w", err)
	}
	return cfg, store, nil
}

func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// commandLogger logs to the rotating file and, with --verbose, to stderr.
func (c *commandContext) commandLogger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Console:     cmd.ErrOrStderr(),
		Quiet:       c.verbose == nil || !*c.verbose,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		Retention:   cfg.Logging.Retention,
		Development: cfg.Debug,
	}
	if cfg.Logging.File {
		opts.FilePath = filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
		if cfg.Logging.SeparateErrors {
			opts.ErrorFilePath = filepath.Join(cfg.Paths.LogDir, logging.ErrorLogFileName)
		}
	}
	if opts.Quiet && opts.FilePath == "" {
		return logging.NewNop(), nil
	}
	return logging.New(opts)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
