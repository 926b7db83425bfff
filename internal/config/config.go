// Package config reads the parley settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/parley/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Config is the content of a parley settings file.
type Config struct {
	LogLevel           string          `yaml:"log_level"`
	StubFailedRoutines bool            `yaml:"stub_failed_routines"`
	Settings           domain.Settings `yaml:"settings"`
	Redis              RedisConfig     `yaml:"redis"`
	HTTP               HTTPConfig      `yaml:"http"`
}

// RedisConfig locates the flag bus. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// HTTPConfig configures the control surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Settings: domain.DefaultSettings(),
		HTTP:     HTTPConfig{Addr: ":8080"},
	}
}

// Load reads the settings file at path on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg.Validate()
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Settings.MaxFlags < 0 {
		errs = append(errs, fmt.Errorf("settings.max_flags must not be negative"))
	}
	if c.Settings.InitialConversationPool < 0 {
		errs = append(errs, fmt.Errorf("settings.initial_conversation_pool must not be negative"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db must not be negative"))
	}
	return errors.Join(errs...)
}
