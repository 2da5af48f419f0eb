// Package cli implements the mockup command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/buildinfo"
	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/config"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/pipeline"
	"github.com/matzehuels/mockup/pkg/templates"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mockup"

	// redisPrefix namespaces every key the CLI stores in Redis.
	redisPrefix = "mockup:"

	// connectTimeout bounds connecting to Redis or MongoDB.
	connectTimeout = 10 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag. Empty means search the working
	// directory for one of config.FileNames.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Mockup turns layered designs into customizable templates",
		Long:         `Mockup decodes layered SVG and PSD designs into addressable mockup templates, then merges, composites and exports them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.ConfigPath, "config", "c", "", "config file (default: ./mockup.toml or ./mockup.yaml)")

	root.AddCommand(c.decodeCommand())
	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.downloadCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.templatesCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Runner Factory
// =============================================================================

// loadConfig loads the --config file, or the first config file found in the
// working directory, or defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Find(wd)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use. noCache overrides the
// configured cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(pipeline.FromConfig(cfg), ch, c.Logger), nil
}

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, redisPrefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", cfg.Cache.RedisAddr)
		}
		return rc, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newTemplateStore opens the configured template catalog wrapped in a
// cache. It returns nil when no catalog is configured.
func newTemplateStore(ctx context.Context, cfg *config.Config, ch cache.Cache) (templates.Store, error) {
	var (
		store  templates.Store
		source string
	)
	switch {
	case cfg.Templates.URL != "":
		hs, err := templates.NewHTTPStore(cfg.Templates.URL)
		if err != nil {
			return nil, err
		}
		store, source = hs, cfg.Templates.URL
	case cfg.Templates.MongoURI != "":
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		ms, err := templates.NewMongoStore(ctx, cfg.Templates.MongoURI, cfg.Templates.MongoDB, cfg.Templates.MongoCollection)
		if err != nil {
			return nil, err
		}
		store, source = ms, "mongo:"+cfg.Templates.MongoDB+"/"+cfg.Templates.MongoCollection
	default:
		return nil, nil
	}
	if ch == nil {
		return store, nil
	}
	return templates.Cached(store, source, ch, nil), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or, by XDG convention,
// ~/.cache/mockup/.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// sessionDir returns where inspect keeps its snapshots.
func sessionDir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "sessions")
	}
	return ""
}
