// File: config_test.go
// Title: Configuration Module Tests
// Description: Tests for TOML/YAML loading, dot-notation access, environment
//              overrides, defaults merging and typed settings.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-13
//
// Change History:
// - 2025-01-25 v0.1.0: Initial test implementation
// - 2026-10-13 v0.2.0: Settings and nested defaults coverage

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("load TOML config", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "cifcheck.toml")
		configContent := `
[parse]
dialect = "cif2"
diagnostics = true

[lint]
allow = ["CIF2_DOUBLED_QUOTE", "CIF2_EMPTY_BLOCK_NAME"]

[store]
retention = 30
`
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Format() != FormatTOML {
			t.Errorf("Format() = %v, want toml", cfg.Format())
		}
		if got := cfg.GetString("parse.dialect"); got != "cif2" {
			t.Errorf("parse.dialect = %q, want cif2", got)
		}
		if !cfg.GetBool("parse.diagnostics") {
			t.Error("parse.diagnostics should be true")
		}
		if got := cfg.GetInt("store.retention"); got != 30 {
			t.Errorf("store.retention = %d, want 30", got)
		}
		want := []string{"CIF2_DOUBLED_QUOTE", "CIF2_EMPTY_BLOCK_NAME"}
		if got := cfg.GetStringSlice("lint.allow"); !reflect.DeepEqual(got, want) {
			t.Errorf("lint.allow = %v, want %v", got, want)
		}
	})

	t.Run("load YAML config", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "cifcheck.yaml")
		configContent := "parse:\n  dialect: cif1\noutput:\n  format: yaml\n"
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}

		cfg, err := Load(configPath)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if cfg.Format() != FormatYAML {
			t.Errorf("Format() = %v, want yaml", cfg.Format())
		}
		if got := cfg.GetString("output.format"); got != "yaml" {
			t.Errorf("output.format = %q, want yaml", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, "absent.toml"))
		if !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
			t.Errorf("expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Load("  ")
		if !mdwerror.HasCode(err, mdwerror.CodeInvalidInput) {
			t.Errorf("expected INVALID_INPUT, got %v", err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		configPath := filepath.Join(tempDir, "broken.toml")
		if err := os.WriteFile(configPath, []byte("[parse\ndialect ="), 0644); err != nil {
			t.Fatalf("Failed to write test config: %v", err)
		}
		_, err := Load(configPath)
		if !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
			t.Errorf("expected INVALID_CONFIG, got %v", err)
		}
	})
}

func TestLoadFromString(t *testing.T) {
	cfg, err := LoadFromString(`log = { level = "debug" }`, FormatAuto)
	if err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}
	if got := cfg.GetString("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
	if got := cfg.GetString("log.format", "console"); got != "console" {
		t.Errorf("default not applied, got %q", got)
	}
	if cfg.Has("log.format") {
		t.Error("Has(log.format) should be false")
	}
	if cfg.GetString("log.level.deeper") != "" {
		t.Error("walking through a scalar should yield nothing")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	cfg := FromMap(Defaults(), EnvPrefix)

	t.Setenv("CIFCHECK_PARSE_DIALECT", "cif1")
	t.Setenv("CIFCHECK_PARSE_DIAGNOSTICS", "true")
	t.Setenv("CIFCHECK_LINT_ALLOW", "CIF2_DOUBLED_QUOTE, CIF2_EMPTY_FRAME_NAME")

	if got := cfg.EnvKey("parse.dialect"); got != "CIFCHECK_PARSE_DIALECT" {
		t.Errorf("EnvKey = %q", got)
	}
	if got := cfg.GetString("parse.dialect"); got != "cif1" {
		t.Errorf("parse.dialect = %q, want cif1", got)
	}
	if !cfg.GetBool("parse.diagnostics") {
		t.Error("parse.diagnostics override ignored")
	}
	want := []string{"CIF2_DOUBLED_QUOTE", "CIF2_EMPTY_FRAME_NAME"}
	if got := cfg.GetStringSlice("lint.allow"); !reflect.DeepEqual(got, want) {
		t.Errorf("lint.allow = %v, want %v", got, want)
	}

	noPrefix := FromMap(Defaults(), "")
	if got := noPrefix.GetString("parse.dialect"); got != "auto" {
		t.Errorf("unprefixed config read the environment: %q", got)
	}
}

func TestSetAndGetAll(t *testing.T) {
	cfg := FromMap(nil, "")
	cfg.Set("store.path", "/tmp/h.db")
	cfg.Set("parse.dialect", "cif2")

	all := cfg.GetAll()
	store, ok := all["store"].(map[string]interface{})
	if !ok || store["path"] != "/tmp/h.db" {
		t.Fatalf("GetAll() = %v", all)
	}
	store["path"] = "mutated"
	if cfg.GetString("store.path") != "/tmp/h.db" {
		t.Error("GetAll must return a copy")
	}
}

func TestMergeDefaultsNested(t *testing.T) {
	data := map[string]interface{}{
		"parse": map[string]interface{}{"dialect": "cif2"},
	}
	merged := mergeDefaults(data, Defaults())

	parse := merged["parse"].(map[string]interface{})
	if parse["dialect"] != "cif2" {
		t.Errorf("file value lost: %v", parse["dialect"])
	}
	if parse["diagnostics"] != false {
		t.Errorf("default sibling lost: %v", parse)
	}
	if _, ok := merged["store"]; !ok {
		t.Error("default section missing")
	}
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		s, err := LoadSettings("")
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.Parse.Dialect != "auto" || s.Output.Format != "text" || s.Log.Level != "warn" {
			t.Errorf("unexpected defaults: %+v", s)
		}
		if len(s.Lint.Allow) != 0 {
			t.Errorf("Allow = %v, want empty", s.Lint.Allow)
		}
	})

	t.Run("file with partial sections", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.toml")
		if err := os.WriteFile(path, []byte("[parse]\ndialect = \"CIF2\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		s, err := LoadSettings(path)
		if err != nil {
			t.Fatalf("LoadSettings() error = %v", err)
		}
		if s.Parse.Dialect != "cif2" {
			t.Errorf("Dialect = %q, want cif2", s.Parse.Dialect)
		}
		if s.Store.Path == "" {
			t.Error("store path default missing")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"dialect", "[parse]\ndialect = \"cif3\"\n"},
			{"output", "[output]\nformat = \"xml\"\n"},
			{"log format", "[log]\nformat = \"logfmt\"\n"},
			{"store path", "[store]\npath = \"\"\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "c.toml")
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatal(err)
				}
				_, err := LoadSettings(path)
				if !mdwerror.HasCode(err, mdwerror.CodeInvalidConfig) {
					t.Errorf("expected INVALID_CONFIG, got %v", err)
				}
			})
		}
	})
}
