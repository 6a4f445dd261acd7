package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// config is the resolved configuration of ethlinkstate.
type config struct {
	Listen     string
	Interfaces []string
	Timeout    time.Duration
	LogLevel   string
	LogFormat  string
	NetNS      int
}

func defaultConfig() config {
	return config{
		Listen:    ":9417",
		Timeout:   5 * time.Second,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// fileConfig is the on-disk TOML representation of config.
type fileConfig struct {
	Listen     string   `toml:"listen"`
	Interfaces []string `toml:"interfaces"`
	Timeout    string   `toml:"timeout"`
	LogLevel   string   `toml:"log_level"`
	LogFormat  string   `toml:"log_format"`
	NetNS      int      `toml:"netns"`
}

// loadConfig reads a TOML configuration file.  Keys missing from the file
// keep their default values.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}

	if meta.IsDefined("interfaces") {
		cfg.Interfaces = normalizeInterfaces(raw.Interfaces)
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return config{}, fmt.Errorf("parse timeout: %w", err)
		}
		if d <= 0 {
			return config{}, fmt.Errorf("parse timeout: must be positive, got %s", d)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}

	if meta.IsDefined("netns") {
		cfg.NetNS = raw.NetNS
	}

	return cfg, nil
}

// normalizeInterfaces trims names and drops empty and duplicate entries.
func normalizeInterfaces(names []string) []string {
	var out []string
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}

		seen[n] = true
		out = append(out, n)
	}

	return out
}
