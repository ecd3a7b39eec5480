package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"dubber/internal/config"
	"dubber/internal/export"
	"dubber/internal/logging"
	"dubber/internal/media"
	"dubber/internal/project"
	"dubber/internal/synthesis"
	"dubber/internal/synthesis/ttscache"
)

// commandContext lazily builds the shared collaborators behind the CLI.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) projectStore() (*project.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return project.NewStore(cfg.Paths.ProjectsDir, c.ensureLogger())
}

func (c *commandContext) synthesisClient() (*synthesis.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Synthesis.Endpoint == "" {
		return nil, errors.New("synthesis.endpoint is not configured (run `dubber config init` and edit the file)")
	}
	opts := []synthesis.Option{
		synthesis.WithTimeout(secondsDuration(cfg.Synthesis.TimeoutSeconds)),
		synthesis.WithRetry(cfg.Synthesis.MaxAttempts,
			secondsDuration(cfg.Synthesis.BackoffBase),
			secondsDuration(cfg.Synthesis.BackoffCap)),
		synthesis.WithLogger(c.ensureLogger()),
	}
	if cfg.Synthesis.ProxyURL != "" {
		opts = append(opts, synthesis.WithProxy(cfg.Synthesis.ProxyURL))
	}
	return synthesis.NewClient(cfg.Synthesis.Endpoint, opts...), nil
}

// buildPipeline wires the media engine, synthesis service, cache, and
// project persistence into an export pipeline. The returned closer releases
// the cache database.
func (c *commandContext) buildPipeline(store *project.Store) (*export.Pipeline, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := c.ensureLogger()

	engine := media.NewFFmpeg(cfg, logger)
	client, err := c.synthesisClient()
	if err != nil {
		return nil, nil, err
	}
	cache, err := ttscache.Open(cfg.Paths.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	probe := func(ctx context.Context, path string) (float64, error) {
		info, err := engine.Probe(ctx, path)
		if err != nil {
			return 0, err
		}
		return info.Duration, nil
	}
	service := synthesis.NewService(client, cache, probe, cfg, logger)

	var save export.SaveFunc
	if store != nil {
		save = store.Save
	}
	pipeline := export.New(cfg, engine, service, save, logger)
	return pipeline, func() { _ = cache.Close() }, nil
}
