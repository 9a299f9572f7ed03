// Package config loads the settings of the subcipher command.
//
// Values are resolved in order: built-in defaults, an optional YAML file, then
// SUBCIPHER_* environment variables. The library packages never read it; the
// command passes explicit values down.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/vdparikh/subcipher"
	"github.com/vdparikh/subcipher/rediscache"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SUBCIPHER_"

// Config holds the resolved settings of the subcipher command.
type Config struct {
	Variant  string `yaml:"variant"`
	Strategy string `yaml:"strategy"`
	LogLevel string `yaml:"log_level"`
	Redis    Redis  `yaml:"redis"`
}

// Redis configures the shared permutation cache. An empty Addr disables it.
type Redis struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load reads the YAML file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := c.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(lookup); err != nil {
		return nil, err
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"VARIANT":      &c.Variant,
		"STRATEGY":     &c.Strategy,
		"LOG_LEVEL":    &c.LogLevel,
		"REDIS_ADDR":   &c.Redis.Addr,
		"REDIS_PREFIX": &c.Redis.Prefix,
	}
	for name, dst := range strs {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := lookup(envPrefix + "REDIS_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sREDIS_TTL: %w", envPrefix, err)
		}
		c.Redis.TTL = ttl
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Variant == "" {
		c.Variant = subcipher.VariantSequential.String()
	}
	if c.Strategy == "" {
		c.Strategy = "random"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = rediscache.DefaultPrefix
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var allErrors []error

	if _, err := subcipher.ParseVariant(c.Variant); err != nil {
		allErrors = append(allErrors, fmt.Errorf("variant: %v", err))
	}
	if _, err := subcipher.StrategyByName(c.Strategy, nil); err != nil {
		allErrors = append(allErrors, fmt.Errorf("strategy: %v", err))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		allErrors = append(allErrors, fmt.Errorf("log_level: %v", err))
	}
	if c.Redis.TTL < 0 {
		allErrors = append(allErrors, fmt.Errorf("redis.ttl must not be negative, got %s", c.Redis.TTL))
	}
	return writeErr(allErrors)
}

// VariantValue returns the parsed permutation variant.
func (c *Config) VariantValue() subcipher.Variant {
	v, err := subcipher.ParseVariant(c.Variant)
	if err != nil {
		return subcipher.VariantSequential
	}
	return v
}

// ParseLevel maps a level name such as "debug" or "WARN" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func writeErr(allErrors []error) error {
	if len(allErrors) > 0 {
		var messages []string
		for _, err := range allErrors {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}
	return nil
}
