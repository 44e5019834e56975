// File: settings.go
// Title: Typed cifcheck Settings
// Description: Typed view over a Config holding the parse, lint, log, output
//              and store settings used by the cifcheck command.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-13
// Modified: 2026-10-13
//
// Change History:
// - 2026-10-13 v0.1.0: Initial implementation

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// EnvPrefix is the prefix of all cifcheck environment overrides
const EnvPrefix = "CIFCHECK"

// Settings is the resolved cifcheck configuration
type Settings struct {
	Parse  ParseSettings  `toml:"parse" yaml:"parse"`
	Lint   LintSettings   `toml:"lint" yaml:"lint"`
	Log    LogSettings    `toml:"log" yaml:"log"`
	Output OutputSettings `toml:"output" yaml:"output"`
	Store  StoreSettings  `toml:"store" yaml:"store"`
}

// ParseSettings selects dialect and diagnostics mode
type ParseSettings struct {
	Dialect     string `toml:"dialect" yaml:"dialect"`         // auto, cif1 or cif2
	Diagnostics bool   `toml:"diagnostics" yaml:"diagnostics"` // collect violations instead of failing fast
}

// LintSettings configures the lint command
type LintSettings struct {
	Allow []string `toml:"allow" yaml:"allow"` // rule ids that never fail a lint
}

// LogSettings configures the process logger
type LogSettings struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// OutputSettings configures document and report rendering
type OutputSettings struct {
	Format string `toml:"format" yaml:"format"` // text, json or yaml
}

// StoreSettings locates the lint history database
type StoreSettings struct {
	Path string `toml:"path" yaml:"path"`
}

var (
	validDialects      = []string{"auto", "cif1", "cif2"}
	validOutputFormats = []string{"text", "json", "yaml"}
	validLogFormats    = []string{"json", "text", "console"}
)

// DefaultStorePath returns the default lint history location
func DefaultStorePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "cifcheck", "history.db")
	}
	return "cifcheck-history.db"
}

// Defaults returns the default values in Config layout
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"parse": map[string]interface{}{
			"dialect":     "auto",
			"diagnostics": false,
		},
		"lint": map[string]interface{}{
			"allow": []interface{}{},
		},
		"log": map[string]interface{}{
			"level":  "warn",
			"format": "console",
		},
		"output": map[string]interface{}{
			"format": "text",
		},
		"store": map[string]interface{}{
			"path": DefaultStorePath(),
		},
	}
}

// LoadSettings reads settings from path, or from defaults and environment
// alone when path is empty
func LoadSettings(path string) (*Settings, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = FromMap(Defaults(), EnvPrefix)
	} else {
		cfg, err = LoadWithOptions(path, LoadOptions{
			Format:    FormatAuto,
			EnvPrefix: EnvPrefix,
			Defaults:  Defaults(),
		})
		if err != nil {
			return nil, err
		}
	}

	s := FromConfig(cfg)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromConfig builds Settings from a Config, falling back to defaults
func FromConfig(c *Config) *Settings {
	return &Settings{
		Parse: ParseSettings{
			Dialect:     strings.ToLower(c.GetString("parse.dialect", "auto")),
			Diagnostics: c.GetBool("parse.diagnostics", false),
		},
		Lint: LintSettings{
			Allow: c.GetStringSlice("lint.allow", []string{}),
		},
		Log: LogSettings{
			Level:  c.GetString("log.level", "warn"),
			Format: c.GetString("log.format", "console"),
		},
		Output: OutputSettings{
			Format: strings.ToLower(c.GetString("output.format", "text")),
		},
		Store: StoreSettings{
			Path: c.GetString("store.path", DefaultStorePath()),
		},
	}
}

// Validate checks enumerated settings
func (s *Settings) Validate() error {
	if !oneOf(s.Parse.Dialect, validDialects) {
		return invalidSetting("parse.dialect", s.Parse.Dialect, validDialects)
	}
	if !oneOf(s.Output.Format, validOutputFormats) {
		return invalidSetting("output.format", s.Output.Format, validOutputFormats)
	}
	if !oneOf(strings.ToLower(s.Log.Format), validLogFormats) {
		return invalidSetting("log.format", s.Log.Format, validLogFormats)
	}
	if strings.TrimSpace(s.Store.Path) == "" {
		return mdwerror.New("store.path must not be empty").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.Settings.Validate")
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func invalidSetting(key, value string, allowed []string) error {
	return mdwerror.New(fmt.Sprintf("invalid %s %q, want one of %s", key, value, strings.Join(allowed, ", "))).
		WithCode(mdwerror.CodeInvalidConfig).
		WithOperation("config.Settings.Validate").
		WithDetail("key", key).
		WithDetail("value", value)
}
