package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"audioscribe/internal/app"
	"audioscribe/internal/config"
	"audioscribe/internal/history"
	"audioscribe/internal/logging"
	"audioscribe/internal/notifications"
	"audioscribe/internal/transcripts"
)

// errSilentExit fails the command after it already explained itself.
var errSilentExit = errors.New("command failed")

type globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
}

type commandContext struct {
	configFlag *string
	flags      *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, flags *globalFlags) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		flags:      flags,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.flags != nil && c.flags.json
}

func (c *commandContext) levelOverride() string {
	switch {
	case c.flags == nil:
		return ""
	case c.flags.verbose:
		return "debug"
	case c.flags.quiet:
		return "error"
	default:
		return ""
	}
}

// logger writes to the command's stderr and the state directory log file.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if override := c.levelOverride(); override != "" {
		level = override
	}
	return logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.LogPath()},
		Writer:      cmd.ErrOrStderr(),
	})
}

// session bundles an orchestrator with the resources it holds open.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
	store  *history.Store
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	client := transcripts.NewConfiguredClient(cfg, logger)
	opts := []app.Option{
		app.WithNotifier(notifications.NewService(cfg)),
		app.WithUploadLock(cfg.UploadLockPath()),
	}

	s := &session{cfg: cfg, logger: logger}
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			logger.Warn("batch history unavailable", logging.Error(err))
		} else {
			s.store = store
			opts = append(opts, app.WithRecorder(store))
		}
	}
	s.app = app.New(cfg, client, logger, opts...)
	return s, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
