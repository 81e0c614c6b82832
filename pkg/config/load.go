package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variable for every key.
const EnvPrefix = "DATASYNC_"

// EnvKey returns the environment variable that overrides key, for example
// DATASYNC_DATASOURCE_URL for "datasource.url".
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is not an error. envFiles are loaded into the
// process environment first without overriding variables already set; when
// none are given, ./.env is used if it exists.
func Load(path string, envFiles ...string) (*Config, error) {
	c := New()

	if path != "" {
		values, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		c.Update(values)
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	c.Update(envOverrides(c.keys()))

	return c, nil
}

func readYAML(path string) (map[string]string, error) {
	//nolint:gosec // path is supplied by the operator
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	values := make(map[string]string)
	flatten("", doc, values)
	return values, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func envOverrides(keys []string) map[string]string {
	out := make(map[string]string)
	for _, key := range keys {
		if v, ok := os.LookupEnv(EnvKey(key)); ok {
			out[key] = v
		}
	}
	return out
}

func (c *Config) keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteDefault writes the built-in defaults to path as YAML.
func WriteDefault(path string) error {
	doc := make(map[string]map[string]string)
	for key, v := range Defaults() {
		section, name, _ := strings.Cut(key, ".")
		if doc[section] == nil {
			doc[section] = make(map[string]string)
		}
		doc[section][name] = v
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write default config file: %w", err)
	}
	return nil
}
