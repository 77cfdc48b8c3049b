// Package config loads the jarscope.toml configuration file and builds the
// analysis collaborators it describes.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/jarscope/pkg/errors"
	"github.com/matzehuels/jarscope/pkg/filter"
	"github.com/matzehuels/jarscope/pkg/profile"
	"github.com/matzehuels/jarscope/pkg/scope"
)

// DefaultFile is the configuration file looked up in the working directory
// when no path is given.
const DefaultFile = "jarscope.toml"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the decoded configuration file.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Filter   Filter   `toml:"filter"`
	Scope    Scope    `toml:"scope"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Analysis configures the analyzer.
type Analysis struct {
	// Concurrency bounds per-archive workers. Zero selects GOMAXPROCS.
	Concurrency int `toml:"concurrency"`
	// Profiles names built-in profiles to enable.
	Profiles []string `toml:"profiles"`
	// ProfileFiles lists extra profile TOML files, relative to the config file.
	ProfileFiles []string `toml:"profile_files"`
}

// Filter configures the whitelist policy.
type Filter struct {
	// Archives are archive name globs whose version conflicts are suppressed.
	Archives []string `toml:"archives"`
	// Requires maps archive name globs to suppressed requirement patterns.
	Requires map[string][]string `toml:"requires"`
}

// Scope configures the classloader hierarchy.
type Scope struct {
	Loaders []Loader `toml:"loaders"`
}

// Loader is one [[scope.loaders]] table.
type Loader struct {
	Name     string   `toml:"name"`
	Parent   string   `toml:"parent"`
	Archives []string `toml:"archives"`
}

// Cache configures the rendered-artifact cache.
type Cache struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
	Dir      string `toml:"dir"`
}

// Server configures `jarscope serve`.
type Server struct {
	Addr  string `toml:"addr"`
	Watch bool   `toml:"watch"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Analysis: Analysis{Profiles: []string{"java.se"}},
		Cache:    Cache{Backend: BackendFile, TTL: "24h"},
		Server:   Server{Addr: ":8080"},
	}
}

// Load reads path over the defaults. An empty path loads DefaultFile from
// the working directory if it exists and returns the defaults otherwise.
func Load(path string) (*Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if os.IsNotExist(err) {
		if explicit {
			return nil, "", errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, "", nil
	}
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, "", errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown key %s", path, undecoded[0])
	}

	base := filepath.Dir(path)
	for i, f := range cfg.Analysis.ProfileFiles {
		if !filepath.IsAbs(f) {
			cfg.Analysis.ProfileFiles[i] = filepath.Join(base, f)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks the configuration without touching the filesystem.
func (c *Config) Validate() error {
	if c.Analysis.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "analysis.concurrency must not be negative")
	}
	if _, err := profile.Lookup(c.Analysis.Profiles...); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "analysis.profiles")
	}
	if _, err := c.Filter.Build(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "filter")
	}
	if _, err := c.Oracle(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q (must be one of: none, file, redis)", c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	return nil
}

// Build converts the filter table into a policy.
func (f Filter) Build() (*filter.Rules, error) {
	return filter.New(f.Archives, f.Requires)
}

// Policy returns the whitelist policy.
func (c *Config) Policy() (filter.Policy, error) {
	rules, err := c.Filter.Build()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "filter")
	}
	if rules.Empty() {
		return filter.None{}, nil
	}
	return rules, nil
}

// Oracle returns the visibility oracle: a loader hierarchy when loaders are
// configured and [scope.AlwaysVisible] otherwise.
func (c *Config) Oracle() (scope.Oracle, error) {
	if len(c.Scope.Loaders) == 0 {
		return scope.AlwaysVisible{}, nil
	}
	loaders := make([]scope.Loader, len(c.Scope.Loaders))
	for i, l := range c.Scope.Loaders {
		loaders[i] = scope.Loader{Name: l.Name, Parent: l.Parent, Archives: l.Archives}
	}
	return scope.NewHierarchy(loaders)
}

// Profiles returns the enabled built-in profiles followed by the profiles
// read from ProfileFiles.
func (c *Config) Profiles() (profile.Set, error) {
	set, err := profile.Lookup(c.Analysis.Profiles...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "analysis.profiles")
	}
	for _, f := range c.Analysis.ProfileFiles {
		p, err := profile.LoadFile(f)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// CacheTTL parses the cache TTL. An empty TTL means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || ttl < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "cache.ttl %q is not a valid duration", c.Cache.TTL)
	}
	return ttl, nil
}
