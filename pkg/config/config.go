// Package config loads ddlayout settings.
//
// Settings come from three places, later ones winning: built-in defaults, a
// TOML or YAML file (chosen by extension), and DDLAYOUT_* environment
// variables, optionally read from a .env file. [Loader] keeps the file under
// watch and publishes reloaded settings.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ddlerrors "github.com/matzehuels/ddlayout/pkg/errors"
)

// Ordering strategy names.
const (
	OrderingIdentity   = "identity"
	OrderingRandom     = "random"
	OrderingBarycenter = "barycenter"
	OrderingSwap       = "swap"
)

// Positioning strategy names.
const (
	PositioningBasic    = "basic"
	PositioningCentered = "centered"
)

// Render format names.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DDLAYOUT_"

// Config is the complete ddlayout configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout" yaml:"layout"`
	Render RenderConfig `toml:"render" yaml:"render"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
}

// LayoutConfig selects and tunes the layout strategies.
type LayoutConfig struct {
	Duration     int64    `toml:"duration" yaml:"duration"` // animation length in ms
	Ordering     []string `toml:"ordering" yaml:"ordering"` // applied left to right
	SwapsPerNode int      `toml:"swaps_per_node" yaml:"swaps_per_node"`
	Passes       int      `toml:"passes" yaml:"passes"`
	Seed         uint64   `toml:"seed" yaml:"seed"`
	Positioning  string   `toml:"positioning" yaml:"positioning"`
	Spacing      float64  `toml:"spacing" yaml:"spacing"`
}

// RenderConfig controls output.
type RenderConfig struct {
	Format     string  `toml:"format" yaml:"format"`
	Scale      float64 `toml:"scale" yaml:"scale"`
	CellWidth  float64 `toml:"cell_width" yaml:"cell_width"`
	CellHeight float64 `toml:"cell_height" yaml:"cell_height"`
	EdgeLabels bool    `toml:"edge_labels" yaml:"edge_labels"`
}

// CacheConfig selects the cache backend. RedisURL wins over Dir; with
// neither set, results are kept in memory only.
type CacheConfig struct {
	Disabled      bool          `toml:"disabled" yaml:"disabled"`
	Dir           string        `toml:"dir" yaml:"dir"`
	RedisURL      string        `toml:"redis_url" yaml:"redis_url"`
	TTL           time.Duration `toml:"ttl" yaml:"ttl"`
	MemoryEntries int           `toml:"memory_entries" yaml:"memory_entries"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			Duration:     300,
			Ordering:     []string{OrderingBarycenter, OrderingSwap},
			SwapsPerNode: 2,
			Passes:       4,
			Seed:         42,
			Positioning:  PositioningBasic,
			Spacing:      2,
		},
		Render: RenderConfig{
			Format:     FormatText,
			Scale:      1,
			CellWidth:  4,
			CellHeight: 1,
		},
		Cache: CacheConfig{
			TTL:           24 * time.Hour,
			MemoryEntries: 256,
		},
	}
}

// Load reads defaults, then path (if not empty), then the environment, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads environment variables from the given .env files (default
// ".env") without overriding variables that are already set. Missing files
// are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ReadFile decodes path on top of c. The format follows the extension.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ddlerrors.Wrap(ddlerrors.ErrCodeFileNotFound, err, "config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return ddlerrors.New(ddlerrors.ErrCodeInvalidFormat, "config must be .toml, .yaml or .yml: %s", path)
	}
	if err != nil {
		return ddlerrors.Wrap(ddlerrors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return nil
}

// ApplyEnv overrides fields from DDLAYOUT_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []string
	str := func(name string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + name)); v != "" {
			*dst = v
		}
	}
	parse := func(name string, set func(string) error) {
		v := strings.TrimSpace(getenv(EnvPrefix + name))
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, EnvPrefix+name+": "+err.Error())
		}
	}

	parse("DURATION", func(v string) (err error) {
		c.Layout.Duration, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	parse("ORDERING", func(v string) error {
		c.Layout.Ordering = splitList(v)
		return nil
	})
	parse("SEED", func(v string) (err error) {
		c.Layout.Seed, err = strconv.ParseUint(v, 10, 64)
		return err
	})
	parse("PASSES", func(v string) (err error) {
		c.Layout.Passes, err = strconv.Atoi(v)
		return err
	})
	str("POSITIONING", &c.Layout.Positioning)
	str("FORMAT", &c.Render.Format)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_URL", &c.Cache.RedisURL)
	parse("CACHE_TTL", func(v string) (err error) {
		c.Cache.TTL, err = time.ParseDuration(v)
		return err
	})
	parse("NO_CACHE", func(v string) (err error) {
		c.Cache.Disabled, err = strconv.ParseBool(v)
		return err
	})

	if len(errs) > 0 {
		return ddlerrors.New(ddlerrors.ErrCodeInvalidConfig, "invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks names and ranges.
func (c *Config) Validate() error {
	if c.Layout.Duration < 0 {
		return ddlerrors.New(ddlerrors.ErrCodeInvalidConfig, "layout duration must not be negative")
	}
	for _, name := range c.Layout.Ordering {
		if err := ddlerrors.ValidateOneOf("ordering", name,
			OrderingIdentity, OrderingRandom, OrderingBarycenter, OrderingSwap); err != nil {
			return err
		}
	}
	if err := ddlerrors.ValidateOneOf("positioning", c.Layout.Positioning,
		PositioningBasic, PositioningCentered); err != nil {
		return err
	}
	if c.Layout.SwapsPerNode < 0 || c.Layout.Passes < 0 || c.Layout.Spacing < 0 {
		return ddlerrors.New(ddlerrors.ErrCodeInvalidConfig, "layout swaps, passes and spacing must not be negative")
	}
	if err := ddlerrors.ValidateOneOf("format", c.Render.Format,
		FormatText, FormatJSON, FormatDOT, FormatSVG, FormatPNG); err != nil {
		return err
	}
	if c.Render.Scale < 0 || c.Render.CellWidth < 0 || c.Render.CellHeight < 0 {
		return ddlerrors.New(ddlerrors.ErrCodeInvalidConfig, "render scale and cell sizes must not be negative")
	}
	if c.Cache.TTL < 0 || c.Cache.MemoryEntries < 0 {
		return ddlerrors.New(ddlerrors.ErrCodeInvalidConfig, "cache ttl and memory entries must not be negative")
	}
	return nil
}

// Encode writes c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
