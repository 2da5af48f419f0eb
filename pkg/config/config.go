// Package config loads mockup settings from a TOML or YAML file with
// environment overrides.
//
// The file format is picked by extension (.toml, .yaml, .yml). Missing
// fields keep their defaults, and the variables MOCKUP_OUTPUT_DIR,
// MOCKUP_EXPORT_DIR, MOCKUP_TEMPLATES_URL and MOCKUP_REDIS_ADDR override
// the file:
//
//	cfg, err := config.Load("mockup.toml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.OutputDir, cfg.Merge.Gap)
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mockup/pkg/errors"
)

// Defaults.
const (
	DefaultOutputDir   = "data/output"
	DefaultExportDir   = "data/export"
	DefaultDownloadDir = "data/download"
	DefaultGap         = 10
	DefaultFallback    = 1000
	DefaultServerAddr  = ":8080"
	DefaultCacheTTL    = 7 * 24 * time.Hour
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Environment variables read by ApplyEnv.
const (
	EnvOutputDir    = "MOCKUP_OUTPUT_DIR"
	EnvExportDir    = "MOCKUP_EXPORT_DIR"
	EnvTemplatesURL = "MOCKUP_TEMPLATES_URL"
	EnvRedisAddr    = "MOCKUP_REDIS_ADDR"
)

// Candidate file names searched by Find, in order.
var FileNames = []string{"mockup.toml", "mockup.yaml", "mockup.yml"}

// Config is the complete application configuration.
type Config struct {
	OutputDir   string `toml:"output_dir" yaml:"output_dir"`
	ExportDir   string `toml:"export_dir" yaml:"export_dir"`
	DownloadDir string `toml:"download_dir" yaml:"download_dir"`

	Merge     Merge     `toml:"merge" yaml:"merge"`
	Fallback  Fallback  `toml:"fallback" yaml:"fallback"`
	Decoder   Decoder   `toml:"decoder" yaml:"decoder"`
	Templates Templates `toml:"templates" yaml:"templates"`
	Cache     Cache     `toml:"cache" yaml:"cache"`
	Server    Server    `toml:"server" yaml:"server"`
}

// Merge configures sheet packing.
type Merge struct {
	Gap    float64 `toml:"gap" yaml:"gap"`
	Width  float64 `toml:"width" yaml:"width"`
	Height float64 `toml:"height" yaml:"height"`
}

// Fallback is the canvas size used when a document declares none.
type Fallback struct {
	Width  float64 `toml:"width" yaml:"width"`
	Height float64 `toml:"height" yaml:"height"`
}

// Decoder configures the external raster decoder.
type Decoder struct {
	Command  string   `toml:"command" yaml:"command"`
	Args     []string `toml:"args" yaml:"args"`
	Dir      string   `toml:"dir" yaml:"dir"`
	Archive  string   `toml:"archive" yaml:"archive"`
	JSONFile string   `toml:"json_file" yaml:"json_file"`
}

// Templates selects the template catalog. URL wins over MongoURI.
type Templates struct {
	URL             string `toml:"url" yaml:"url"`
	MongoURI        string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDB         string `toml:"mongo_db" yaml:"mongo_db"`
	MongoCollection string `toml:"mongo_collection" yaml:"mongo_collection"`
}

// Cache configures the remote asset cache.
type Cache struct {
	Backend   string   `toml:"backend" yaml:"backend"`
	Dir       string   `toml:"dir" yaml:"dir"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr"`
	TTL       Duration `toml:"ttl" yaml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ExportDir == "" {
		c.ExportDir = DefaultExportDir
	}
	if c.DownloadDir == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.Merge.Gap == 0 {
		c.Merge.Gap = DefaultGap
	}
	if c.Fallback.Width == 0 {
		c.Fallback.Width = DefaultFallback
	}
	if c.Fallback.Height == 0 {
		c.Fallback.Height = DefaultFallback
	}
	if c.Templates.MongoDB == "" {
		c.Templates.MongoDB = "mockup"
	}
	if c.Templates.MongoCollection == "" {
		c.Templates.MongoCollection = "templates"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = Duration(DefaultCacheTTL)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	if c.Merge.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "merge.gap must not be negative")
	}
	if c.Merge.Width < 0 || c.Merge.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "merge sheet size must not be negative")
	}
	if c.Fallback.Width <= 0 || c.Fallback.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "fallback size must be positive")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}
	if c.Templates.URL != "" {
		if err := errors.ValidateURL(c.Templates.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "templates.url")
		}
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.OutputDir, EnvOutputDir)
	set(&c.ExportDir, EnvExportDir)
	set(&c.Templates.URL, EnvTemplatesURL)
	if v := strings.TrimSpace(getenv(EnvRedisAddr)); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
}

// Load reads path, applies defaults and the environment, and validates the
// result. An empty path loads defaults plus the environment.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
		}
		if err := Decode(data, filepath.Ext(path), c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
		}
	}
	c.ApplyEnv()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode parses data in the format named by ext into c.
func Decode(data []byte, ext string, c *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", ext)
}

// Find returns the first of FileNames present in dir, or "".
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
