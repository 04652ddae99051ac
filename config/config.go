// Package config loads crawlgraph settings from a TOML file.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/timewinder-dev/crawlgraph/crawl"
	"github.com/timewinder-dev/crawlgraph/provider"
)

const (
	EngineMulti  = "multi"
	EngineSingle = "single"

	DefaultWorkers  = 8
	DefaultMaxDepth = 2
)

type Config struct {
	Crawl   CrawlConfig   `toml:"crawl"`
	Service ServiceConfig `toml:"service"`
	Cache   CacheConfig   `toml:"cache"`
}

type CrawlConfig struct {
	Workers      int    `toml:"workers"`
	MaxDepth     int    `toml:"max_depth"`
	Engine       string `toml:"engine"`
	ParallelRuns int    `toml:"parallel_runs"`
}

type ServiceConfig struct {
	URL            string   `toml:"url"`
	Timeout        Duration `toml:"timeout"`
	ConnectTimeout Duration `toml:"connect_timeout"`
	UserAgent      string   `toml:"user_agent"`
	RateLimit      float64  `toml:"rate_limit"`
	Burst          int      `toml:"burst"`
}

type CacheConfig struct {
	// Size of the shared neighbor cache; 0 disables it.
	Size int `toml:"size"`
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the settings used when no file or flag overrides them.
func Default() *Config {
	return &Config{
		Crawl: CrawlConfig{
			Workers:      DefaultWorkers,
			MaxDepth:     DefaultMaxDepth,
			Engine:       EngineMulti,
			ParallelRuns: 1,
		},
		Service: ServiceConfig{
			URL:            provider.DefaultServiceURL,
			Timeout:        Duration{provider.DefaultTimeout},
			ConnectTimeout: Duration{provider.DefaultConnectTimeout},
			UserAgent:      provider.DefaultUserAgent,
			Burst:          1,
		},
		Cache: CacheConfig{
			Size: provider.DefaultCacheSize,
		},
	}
}

func parseConfig(r io.Reader) (*Config, error) {
	out := Default()
	md, err := toml.NewDecoder(r).Decode(out)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return out, nil
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := parseConfig(f)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks every field. Errors wrap crawl.ErrConfiguration.
func (c *Config) Validate() error {
	if err := crawl.ValidateLimits(c.Crawl.MaxDepth, c.Crawl.Workers); err != nil {
		return err
	}
	switch c.Crawl.Engine {
	case EngineMulti, EngineSingle:
	default:
		return fmt.Errorf("%w: unknown engine %q (want %q or %q)", crawl.ErrConfiguration, c.Crawl.Engine, EngineMulti, EngineSingle)
	}
	if c.Crawl.ParallelRuns < 1 {
		return fmt.Errorf("%w: parallel_runs must be positive (%d)", crawl.ErrConfiguration, c.Crawl.ParallelRuns)
	}
	u, err := url.Parse(c.Service.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: service url %q is not an http(s) url", crawl.ErrConfiguration, c.Service.URL)
	}
	if c.Service.Timeout.Duration <= 0 || c.Service.ConnectTimeout.Duration <= 0 {
		return fmt.Errorf("%w: service timeouts must be positive", crawl.ErrConfiguration)
	}
	if c.Service.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit cannot be negative (%g)", crawl.ErrConfiguration, c.Service.RateLimit)
	}
	if c.Service.Burst < 1 {
		return fmt.Errorf("%w: burst must be positive (%d)", crawl.ErrConfiguration, c.Service.Burst)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("%w: cache size cannot be negative (%d)", crawl.ErrConfiguration, c.Cache.Size)
	}
	return nil
}

// HTTP returns the neighbor service settings for provider.NewHTTPFactory.
func (c *Config) HTTP() provider.HTTPConfig {
	return provider.HTTPConfig{
		BaseURL:        c.Service.URL,
		Timeout:        c.Service.Timeout.Duration,
		ConnectTimeout: c.Service.ConnectTimeout.Duration,
		UserAgent:      c.Service.UserAgent,
		RateLimit:      c.Service.RateLimit,
		Burst:          c.Service.Burst,
	}
}
