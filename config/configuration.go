package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Configuration is a flat string key/value store. The zero value is an
// empty configuration ready to use.
type Configuration struct {
	values map[string]string
}

// NewConfiguration creates a configuration holding a copy of values.
func NewConfiguration(values map[string]string) *Configuration {
	c := &Configuration{values: make(map[string]string, len(values))}
	maps.Copy(c.values, values)
	return c
}

// ReadConfiguration loads a YAML mapping of scalars from path.
func ReadConfiguration(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewConfiguration(values), nil
}

// Configuration returns the script visible values of c.
func (c *Config) Configuration() *Configuration {
	return NewConfiguration(c.Values)
}

func (c *Configuration) ContainsKey(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Value returns the value of key.
func (c *Configuration) Value(key string) (string, error) {
	v, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("configuration key %q not found", key)
	}
	return v, nil
}

// ValueOr returns the value of key, or def when key is not set.
func (c *Configuration) ValueOr(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// ListValue splits the value of key at commas.
func (c *Configuration) ListValue(key string) []string {
	v, ok := c.values[key]
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (c *Configuration) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
}

func (c *Configuration) Empty() bool { return len(c.values) == 0 }

func (c *Configuration) Len() int { return len(c.values) }

// Keys returns the keys in sorted order.
func (c *Configuration) Keys() []string {
	keys := maps.Keys(c.values)
	slices.Sort(keys)
	return keys
}

// Key returns the i-th key in sorted order.
func (c *Configuration) Key(i int) (string, error) {
	keys := c.Keys()
	if i < 0 || i >= len(keys) {
		return "", fmt.Errorf("key index %d out of range [0,%d)", i, len(keys))
	}
	return keys[i], nil
}

// Store writes the configuration to path as YAML.
func (c *Configuration) Store(path string) error {
	data, err := yaml.Marshal(c.values)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
