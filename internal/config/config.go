// Package config resolves the runtime configuration: compiled
// defaults, an optional YAML file over them, then environment
// overrides. A missing file is normal; a malformed one logs a warning
// and the defaults stand.
package config

import (
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Shoislam0311/Jervis/internal/provider"
	"github.com/Shoislam0311/Jervis/internal/voice"
	"github.com/Shoislam0311/Jervis/memory"
)

const (
	// DefaultPath is the config file looked up in the working directory.
	DefaultPath = "jervis.yaml"
	// EnvConfigPath overrides DefaultPath.
	EnvConfigPath = "JRV_CONFIG"
	// EnvLogLevel overrides the configured log level.
	EnvLogLevel = "JRV_LOG_LEVEL"
)

// Config holds every runtime knob. None of the environment variables
// here change functional behavior; the credential and log level are
// the only env-sourced values.
type Config struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MemoryFile  string  `yaml:"memory_file"`
	LogLevel    string  `yaml:"log_level"`

	Search SearchConfig `yaml:"search"`
	Voice  VoiceConfig  `yaml:"voice"`
}

// SearchConfig gates prompt augmentation.
type SearchConfig struct {
	Enabled bool `yaml:"enabled"`
}

// VoiceConfig gates speech output and fixes its synthesis parameters.
type VoiceConfig struct {
	Enabled bool    `yaml:"enabled"`
	Name    string  `yaml:"name"`
	Speed   float64 `yaml:"speed"`
}

// Default returns the compiled configuration.
func Default() *Config {
	return &Config{
		Model:       provider.DefaultModel,
		Temperature: 0.7,
		MaxTokens:   1000,
		MemoryFile:  memory.DefaultPath,
		LogLevel:    "info",
		Search:      SearchConfig{Enabled: true},
		Voice: VoiceConfig{
			Enabled: true,
			Name:    voice.DefaultVoice,
			Speed:   voice.DefaultSpeed,
		},
	}
}

// Load resolves the configuration. File values are unmarshalled over
// the defaults so absent keys keep them, then the environment fills
// the credential and log level.
func Load(log zerolog.Logger) *Config {
	cfg := Default()

	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is the common case.
	case err != nil:
		log.Warn().Err(err).Str("path", path).Msg("config file unreadable, using defaults")
	default:
		if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
			log.Warn().Err(uerr).Str("path", path).Msg("config file malformed, using defaults")
			cfg = Default()
		}
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(provider.EnvAPIKey)
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg
}
