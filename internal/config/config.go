// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package config loads the optional term-scout user configuration from
// ~/.term-scout/config.yaml. A missing file yields pure defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/client-go/util/homedir"
)

const (
	// DefaultKubectl is the binary resolved from PATH when nothing
	// overrides it.
	DefaultKubectl = "kubectl"

	// DefaultTimeoutSeconds bounds a single kubectl invocation.
	DefaultTimeoutSeconds = 60

	// EnvKubectl overrides the kubectl binary for one run.
	EnvKubectl = "TERMSCOUT_KUBECTL"
)

// ExtraKind is a user-configured resource kind appended to the scan set
// after the built-in kinds.
type ExtraKind struct {
	Name          string   `yaml:"name"`
	ClusterScoped bool     `yaml:"clusterScoped,omitempty"`
	Aliases       []string `yaml:"aliases,omitempty"`
}

// Config holds everything the config file can set.
type Config struct {
	Kubectl        string      `yaml:"kubectl,omitempty"`
	TimeoutSeconds int         `yaml:"timeoutSeconds,omitempty"`
	ExtraKinds     []ExtraKind `yaml:"extraKinds,omitempty"`
}

// Dir returns the term-scout dot directory in the user's home.
func Dir() string {
	return filepath.Join(homedir.HomeDir(), ".term-scout")
}

// File returns the config file path.
func File() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LogsDir returns where debug traces are written.
func LogsDir() string {
	return filepath.Join(Dir(), "logs")
}

// Load reads the user config, filling defaults for anything unset. The
// returned config is usable even when err is non-nil (defaults apply), so
// callers can warn and continue.
func Load() (*Config, error) {
	cfg := &Config{
		Kubectl:        DefaultKubectl,
		TimeoutSeconds: DefaultTimeoutSeconds,
	}
	data, err := os.ReadFile(File())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		applyEnv(cfg)
		return cfg, fmt.Errorf("reading %s: %w", File(), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		reset := &Config{Kubectl: DefaultKubectl, TimeoutSeconds: DefaultTimeoutSeconds}
		applyEnv(reset)
		return reset, fmt.Errorf("parsing %s: %w", File(), err)
	}
	if cfg.Kubectl == "" {
		cfg.Kubectl = DefaultKubectl
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv lets TERMSCOUT_KUBECTL win over both default and file value.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvKubectl); v != "" {
		cfg.Kubectl = v
	}
}

// Timeout returns the per-invocation kubectl deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
