// Package cli implements the ddlayout command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddlayout/pkg/cache"
	"github.com/matzehuels/ddlayout/pkg/config"
	"github.com/matzehuels/ddlayout/pkg/dag"
	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
	"github.com/matzehuels/ddlayout/pkg/group"
)

const appName = "ddlayout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var errorCodes = []ddlerrors.Mapping{
	{Target: dag.ErrUnknownNode, Code: ddlerrors.ErrCodeUnknownNode},
	{Target: group.ErrUnknownNode, Code: ddlerrors.ErrCodeUnknownNode},
	{Target: group.ErrUnknownGroup, Code: ddlerrors.ErrCodeUnknownGroup},
	{Target: dag.ErrDiscoveryLimit, Code: ddlerrors.ErrCodeDiscovery},
	{Target: dag.ErrInvalidNodeID, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: dag.ErrDuplicateNodeID, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: dag.ErrUnknownSourceNode, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: dag.ErrUnknownTargetNode, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: dag.ErrLevelOrder, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: dag.ErrGraphHasCycle, Code: ddlerrors.ErrCodeInvalidGraph},
	{Target: fs.ErrNotExist, Code: ddlerrors.ErrCodeFileNotFound},
}

// Classify gives library errors returned by a command their error code.
func Classify(err error) error {
	return ddlerrors.Classify(err, errorCodes...)
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
	config     *config.Config
}

// New creates a CLI that logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the loaded configuration, loading it on first use.
func (c *CLI) Config() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// openCache returns the cache selected by cfg, wrapped so that hits and
// misses reach the observability hooks. Redis wins over a directory; the
// directory defaults to the XDG cache location.
func (c *CLI) openCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	var (
		backend cache.Cache
		err     error
	)
	switch {
	case noCache || cfg.Disabled:
		return cache.NewNullCache(), nil
	case cfg.RedisURL != "":
		backend, err = cache.NewRedisCache(ctx, cfg.RedisURL)
	default:
		dir := cfg.Dir
		if dir == "" {
			if dir, err = cacheDir(); err != nil {
				c.Logger.Debug("no cache directory, using memory cache", "err", err)
				backend, err = cache.NewMemoryCache(cfg.MemoryEntries)
				break
			}
		}
		backend, err = cache.NewFileCache(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.NewInstrumented(backend, "layout"), nil
}

// keyer returns the key scheme for cfg. Keys in a shared Redis are prefixed
// with the application name.
func keyer(cfg config.CacheConfig) cache.Keyer {
	if cfg.RedisURL != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")
	}
	return cache.NewDefaultKeyer()
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/ddlayout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
