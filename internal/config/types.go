// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package config

import (
	"fmt"
	"time"

	"github.com/genzdna/ccprobe/client"
)

type Config struct {
	API      APIConfig    `mapstructure:"api" yaml:"api"`
	HTTP     HTTPConfig   `mapstructure:"http" yaml:"http"`
	Output   OutputConfig `mapstructure:"output" yaml:"output"`
	Log      LogConfig    `mapstructure:"log" yaml:"log"`
	Language string       `mapstructure:"language" yaml:"language"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Version string `mapstructure:"version" yaml:"version"`
}

type HTTPConfig struct {
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxResponseBytes int64         `mapstructure:"max_response_bytes" yaml:"max_response_bytes"`
}

type OutputConfig struct {
	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format"`
	// Color is "auto", "always" or "never".
	Color string `mapstructure:"color" yaml:"color"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults returns the built-in values keyed the way viper sees them.
func Defaults() map[string]any {
	return map[string]any{
		"api.base_url":            client.DefaultBaseURL,
		"api.version":             client.DefaultAPIVersion,
		"http.timeout":            client.DefaultTimeout,
		"http.max_response_bytes": int64(client.DefaultMaxResponseBytes),
		"output.format":           "text",
		"output.color":            "auto",
		"log.level":               "info",
		"language":                "en",
	}
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	return nil
}

// ClientConfig maps the loaded settings onto the bootstrap client's config.
func (c Config) ClientConfig() client.Config {
	cc := client.NewDefaultConfig()
	cc.BaseURL = c.API.BaseURL
	cc.APIVersion = c.API.Version
	cc.Timeout = c.HTTP.Timeout
	if c.HTTP.MaxResponseBytes > 0 {
		cc.MaxResponseBytes = c.HTTP.MaxResponseBytes
	}
	return cc
}
