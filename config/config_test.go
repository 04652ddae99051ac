package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/crawlgraph/crawl"
	"github.com/timewinder-dev/crawlgraph/provider"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crawlgraph.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, DefaultWorkers, c.Crawl.Workers)
	assert.Equal(t, DefaultMaxDepth, c.Crawl.MaxDepth)
	assert.Equal(t, EngineMulti, c.Crawl.Engine)
	assert.Equal(t, provider.DefaultServiceURL, c.Service.URL)
	assert.Equal(t, 10*time.Second, c.Service.Timeout.Duration)
	assert.Equal(t, 5*time.Second, c.Service.ConnectTimeout.Duration)
	assert.Equal(t, provider.DefaultCacheSize, c.Cache.Size)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[crawl]
workers = 3
max_depth = 4
engine = "single"

[service]
url = "https://graph.example.com/neighbors/"
timeout = "2s"
rate_limit = 20.5
burst = 4

[cache]
size = 0
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 3, c.Crawl.Workers)
	assert.Equal(t, 4, c.Crawl.MaxDepth)
	assert.Equal(t, EngineSingle, c.Crawl.Engine)
	assert.Equal(t, 1, c.Crawl.ParallelRuns, "unset keys keep their defaults")
	assert.Equal(t, 0, c.Cache.Size)

	h := c.HTTP()
	assert.Equal(t, "https://graph.example.com/neighbors/", h.BaseURL)
	assert.Equal(t, 2*time.Second, h.Timeout)
	assert.Equal(t, provider.DefaultConnectTimeout, h.ConnectTimeout)
	assert.Equal(t, 20.5, h.RateLimit)
	assert.Equal(t, 4, h.Burst)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[crawl]\nworkerz = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl.workerz")

	_, err = Load(writeConfig(t, "[service]\ntimeout = \"soon\"\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "not toml at all ==="))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"zero workers", func(c *Config) { c.Crawl.Workers = 0 }, "worker count"},
		{"negative depth", func(c *Config) { c.Crawl.MaxDepth = -1 }, "max depth"},
		{"bad engine", func(c *Config) { c.Crawl.Engine = "quantum" }, "engine"},
		{"zero parallel runs", func(c *Config) { c.Crawl.ParallelRuns = 0 }, "parallel_runs"},
		{"bad url", func(c *Config) { c.Service.URL = "ftp://x/" }, "service url"},
		{"relative url", func(c *Config) { c.Service.URL = "/neighbors/" }, "service url"},
		{"zero timeout", func(c *Config) { c.Service.Timeout = Duration{} }, "timeouts"},
		{"negative rate", func(c *Config) { c.Service.RateLimit = -1 }, "rate_limit"},
		{"zero burst", func(c *Config) { c.Service.Burst = 0 }, "burst"},
		{"negative cache", func(c *Config) { c.Cache.Size = -5 }, "cache size"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			require.ErrorIs(t, err, crawl.ErrConfiguration)
			assert.True(t, strings.Contains(err.Error(), tc.field), err.Error())
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(b))
}
