package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vidsub/internal/backend"
	"vidsub/internal/config"
	"vidsub/internal/logging"
)

type commandContext struct {
	configFlag     *string
	backendURLFlag *string
	logLevelFlag   *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce  sync.Once
	log         *slog.Logger
	logErr      error
	logToStderr bool
}

func newCommandContext(configFlag, backendURLFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:     configFlag,
		backendURLFlag: backendURLFlag,
		logLevelFlag:   logLevelFlag,
	}
}

// ensureConfig loads the configuration once and applies flag overrides. The
// --backend-url flag wins over both the file and the environment.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, resolved, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if override := config.NormalizeBaseURL(flagValue(c.backendURLFlag)); override != "" {
			if err := config.ValidateBaseURL(override); err != nil {
				c.configErr = fmt.Errorf("--backend-url: %w", err)
				return
			}
			cfg.Backend.BaseURL = override
		}
		if level := strings.ToLower(flagValue(c.logLevelFlag)); level != "" {
			cfg.Logging.Level = level
			if err := cfg.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
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

// logger writes to the log file in the state directory. Lines are mirrored
// to stderr when --log-level was given or the command asked for it.
func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		outputs := []string{cfg.LogPath()}
		if c.logToStderr || flagValue(c.logLevelFlag) != "" {
			outputs = append(outputs, "stderr")
		}
		c.log, c.logErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: outputs,
		})
	})
	return c.log, c.logErr
}

func (c *commandContext) backendClient() (*backend.Client, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, nil, err
	}
	client, err := backend.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}

func flagValue(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
