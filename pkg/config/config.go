// Package config loads phasehull settings from a TOML file.
//
// The file is optional. Missing keys keep their defaults, unknown keys are
// rejected so that typos do not silently fall back to defaults:
//
//	[engine]
//	tolerance = 1e-9
//	warn_factor = 10.0
//
//	[cache]
//	backend = "file"          # null, file, redis or mongo
//	dir = "~/.cache/phasehull"
//	ttl = "168h"
//	redis_addr = "localhost:6379"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "phasehull"
//
//	[server]
//	addr = ":8080"
//
//	[log]
//	level = "info"
package config

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/phasehull/pkg/cache"
	perr "github.com/matzehuels/phasehull/pkg/errors"
	"github.com/matzehuels/phasehull/pkg/geom"
	"github.com/matzehuels/phasehull/pkg/hull"
)

// AppName names the config and cache directories.
const AppName = "phasehull"

// Config is the full settings tree.
type Config struct {
	Engine Engine `toml:"engine"`
	Cache  Cache  `toml:"cache"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`
}

// Engine holds the numerical settings of the hull builder.
type Engine struct {
	Tolerance  float64 `toml:"tolerance"`
	WarnFactor float64 `toml:"warn_factor"`
}

// Cache selects the result cache backend.
type Cache struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPrefix   string        `toml:"redis_prefix"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
	// Scope prefixes every cache key so deployments can share a backend.
	Scope string `toml:"scope"`
}

// Server configures `phasehull serve`.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures the CLI logger.
type Log struct {
	Level string `toml:"level"`
}

// Defaults returns the settings used when no file is present.
func Defaults() Config {
	return Config{
		Engine: Engine{
			Tolerance:  geom.DefaultTolerance,
			WarnFactor: geom.DefaultWarnFactor,
		},
		Cache: Cache{
			Backend:       cache.BackendFile,
			Dir:           defaultCacheDir(),
			TTL:           cache.TTLDiagram,
			RedisAddr:     "localhost:6379",
			RedisPrefix:   AppName + ":",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: AppName,
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/phasehull/config.toml, falling back
// to the OS user config directory.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, "config.toml")
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName)
	}
	return filepath.Join(dir, AppName)
}

// Load reads path over the defaults and validates the result. An empty path
// loads DefaultPath, which is allowed to be missing; an explicit path must
// exist.
func Load(path string) (Config, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Defaults(), nil
	case errors.Is(err, fs.ErrNotExist):
		return cfg, perr.Wrap(perr.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return cfg, perr.Wrap(perr.ErrCodeInvalidFormat, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, perr.New(perr.ErrCodeInvalidFormat, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	e := c.Engine
	if math.IsNaN(e.Tolerance) || math.IsInf(e.Tolerance, 0) || e.Tolerance <= 0 {
		return perr.New(perr.ErrCodeInvalidInput, "engine.tolerance must be a positive number, got %v", e.Tolerance)
	}
	if math.IsNaN(e.WarnFactor) || e.WarnFactor < 1 {
		return perr.New(perr.ErrCodeInvalidInput, "engine.warn_factor must be at least 1, got %v", e.WarnFactor)
	}

	switch c.Cache.Backend {
	case cache.BackendNull:
	case cache.BackendFile:
		if c.Cache.Dir == "" {
			return perr.New(perr.ErrCodeInvalidInput, "cache.dir is required for the file backend")
		}
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return perr.New(perr.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
	case cache.BackendMongo:
		if c.Cache.MongoURI == "" || c.Cache.MongoDatabase == "" {
			return perr.New(perr.ErrCodeInvalidInput, "cache.mongo_uri and cache.mongo_database are required for the mongo backend")
		}
	default:
		return perr.New(perr.ErrCodeInvalidInput, "cache.backend %q must be one of null, file, redis, mongo", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return perr.New(perr.ErrCodeInvalidInput, "cache.ttl must not be negative")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return perr.Wrap(perr.ErrCodeInvalidInput, err, "log.level")
	}
	return nil
}

// HullOptions converts the engine settings into hull builder options.
func (e Engine) HullOptions(logger *log.Logger) []hull.Option {
	opts := []hull.Option{
		hull.WithTolerance(e.Tolerance),
		hull.WithWarnFactor(e.WarnFactor),
	}
	if logger != nil {
		opts = append(opts, hull.WithLogger(logger))
	}
	return opts
}

// Options converts the cache settings for [cache.Open].
func (c Cache) Options() cache.Options {
	return cache.Options{
		Backend:       c.Backend,
		Dir:           c.Dir,
		RedisAddr:     c.RedisAddr,
		RedisPrefix:   c.RedisPrefix,
		MongoURI:      c.MongoURI,
		MongoDatabase: c.MongoDatabase,
	}
}

// Keyer returns the cache keyer for the configured scope, or nil for the
// default keyer.
func (c Cache) Keyer() cache.Keyer {
	if c.Scope == "" {
		return nil
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Scope+":")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
