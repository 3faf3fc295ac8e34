package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/archive"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/content"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) resolvedLogLevel(cfg *config.Config) string {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			return level
		}
	}
	return cfg.Logging.Level
}

// newLogger writes to stderr so command output on stdout stays parseable, and
// to the dated log file under the log directory.
func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName(time.Now()))
		outputs = append(outputs, logPath)
		defer logging.CleanupOldLogs(nil, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	}
	stageLevels := make([]string, 0, len(cfg.Logging.StageOverrides))
	for _, level := range cfg.Logging.StageOverrides {
		stageLevels = append(stageLevels, level)
	}
	logger, err := logging.New(logging.Options{
		Level:       c.resolvedLogLevel(cfg),
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		StageLevels: stageLevels,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger.With(logging.String(logging.FieldComponent, "cli")), nil
}

// session bundles the services one command invocation works against.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	staging  *staging.Backend
	events   *events.Manager
	resolver *content.Resolver
	archive  *archive.Store
}

func (c *commandContext) openSession(ctx context.Context) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return nil, err
	}

	backend, err := staging.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open staging: %w", err)
	}
	resolver := content.NewOSResolver("")
	store, err := archive.Open(ctx, cfg, resolver, logger)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		staging:  backend,
		events:   backend.EventManager(logger),
		resolver: resolver,
		archive:  store,
	}, nil
}

func (s *session) Close() error {
	return errors.Join(s.archive.Close(), s.staging.Close())
}

func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session) error) error {
	s, err := c.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
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
