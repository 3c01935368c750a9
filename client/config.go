// Copyright (c) 2026 ccprobe Team
// ccprobe - session bootstrap and crypto context probe
// This source code is licensed under the MIT license found in the LICENSE file.
package client

import (
	"fmt"
	"net/url"
	"time"

	"github.com/genzdna/ccprobe/buildvars"
)

const (
	DefaultBaseURL          = "http://localhost:6969/api"
	DefaultAPIVersion       = "v0.1.0"
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 64 << 20
)

type Config struct {
	// BaseURL is the API root, e.g. http://localhost:6969/api. The version
	// segment and endpoint name are appended to it.
	BaseURL    string
	APIVersion string
	// Timeout bounds each request individually.
	Timeout          time.Duration
	UserAgent        string
	MaxResponseBytes int64
}

func NewDefaultConfig() Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		APIVersion:       DefaultAPIVersion,
		Timeout:          DefaultTimeout,
		UserAgent:        "ccprobe/" + buildvars.VersionOrDefault("dev"),
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// validate checks the config and returns the parsed base URL.
func (c Config) validate() (*url.URL, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is empty", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base URL %q: %v", ErrInvalidConfig, c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: base URL %q must use http or https", ErrInvalidConfig, c.BaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q has no host", ErrInvalidConfig, c.BaseURL)
	}
	if c.APIVersion == "" {
		return nil, fmt.Errorf("%w: API version is empty", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfig, c.Timeout)
	}
	if c.MaxResponseBytes <= 0 {
		return nil, fmt.Errorf("%w: max response bytes must be positive, got %d", ErrInvalidConfig, c.MaxResponseBytes)
	}
	return u, nil
}
