// Package config holds datasync settings as flat dotted keys such as
// "datasource.url". Values come from built-in defaults, an optional YAML
// file, an optional .env file and DATASYNC_* environment variables, in that
// order of precedence.
package config

import (
	"strconv"
	"sync"
	"time"
)

// Well-known keys.
const (
	KeyDataSourceType       = "datasource.type"
	KeyDataSourceURL        = "datasource.url"
	KeyDataSourceCollection = "datasource.collection"
	KeyDataSourceTimeout    = "datasource.timeout"
	KeyResourceURL          = "resource.url"
	KeyResourceSecure       = "resource.secure"
	KeyLogLevel             = "log.level"
	KeyLogPrefix            = "log.prefix"
)

// Defaults returns the built-in values.
func Defaults() map[string]string {
	return map[string]string{
		KeyDataSourceType:       "memory",
		KeyDataSourceURL:        "mem://local",
		KeyDataSourceCollection: "",
		KeyDataSourceTimeout:    "10s",
		KeyResourceURL:          "",
		KeyResourceSecure:       "false",
		KeyLogLevel:             "info",
		KeyLogPrefix:            "SERVICE",
	}
}

// Config manages datasync configuration
type Config struct {
	mu     sync.RWMutex
	values map[string]string
}

// New creates a configuration manager seeded with Defaults.
func New() *Config {
	return &Config{values: Defaults()}
}

// Get retrieves a configuration value
func (c *Config) Get(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[key]
}

// GetBool parses key as a boolean, returning def when unset or invalid.
func (c *Config) GetBool(key string, def bool) bool {
	b, err := strconv.ParseBool(c.Get(key))
	if err != nil {
		return def
	}
	return b
}

// GetDuration parses key as a duration, returning def when unset or invalid.
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.Get(key))
	if err != nil {
		return def
	}
	return d
}

// GetAll returns a copy of all configuration values
func (c *Config) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Update updates configuration values
func (c *Config) Update(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range values {
		c.values[k] = v
	}
}
