// File: config.go
// Title: Core Configuration Management Implementation
// Description: Implements the Config type for loading, parsing and accessing
//              configuration data from TOML and YAML files with environment
//              variable overrides and dot-notation lookups.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-13
//
// Change History:
// - 2025-01-25 v0.1.0: Initial implementation with TOML/YAML support
// - 2026-10-13 v0.2.0: Dropped file watching and caches, added Merge

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mdwerror "github.com/msto63/mcif/pkg/core/error"
)

// Format represents the configuration file format
type Format int

const (
	// FormatTOML represents TOML format (default)
	FormatTOML Format = iota

	// FormatYAML represents YAML format
	FormatYAML

	// FormatAuto auto-detects format from file extension
	FormatAuto
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Config represents a configuration instance with thread-safe access
type Config struct {
	mu        sync.RWMutex
	data      map[string]interface{}
	filePath  string
	format    Format
	envPrefix string
	lookupEnv func(string) (string, bool)
}

// LoadOptions defines options for loading configuration
type LoadOptions struct {
	Format    Format                 // File format (default: auto-detect)
	EnvPrefix string                 // Environment variable prefix (default: none)
	Defaults  map[string]interface{} // Default values, nested by section
}

// Load loads configuration from a file with default options
func Load(filePath string) (*Config, error) {
	return LoadWithOptions(filePath, LoadOptions{
		Format: FormatAuto,
	})
}

// LoadWithOptions loads configuration from a file with custom options
func LoadWithOptions(filePath string, options LoadOptions) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, mdwerror.New("config file path cannot be empty").
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("config.LoadWithOptions")
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, mdwerror.New(fmt.Sprintf("config file not found: %s", filePath)).
			WithCode(mdwerror.CodeNotFound).
			WithOperation("config.LoadWithOptions").
			WithDetail("filePath", filePath)
	}

	format := options.Format
	if format == FormatAuto {
		format = detectFormat(filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to read config file").
			WithCode(mdwerror.CodeConfigError).
			WithOperation("config.LoadWithOptions").
			WithDetail("filePath", filePath)
	}

	data, err := parseContent(content, format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config file").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.LoadWithOptions").
			WithDetail("filePath", filePath).
			WithDetail("format", format.String())
	}

	if options.Defaults != nil {
		data = mergeDefaults(data, options.Defaults)
	}

	return &Config{
		data:      data,
		filePath:  filePath,
		format:    format,
		envPrefix: options.EnvPrefix,
		lookupEnv: os.LookupEnv,
	}, nil
}

// LoadFromString loads configuration from a string with specified format
func LoadFromString(content string, format Format) (*Config, error) {
	if format == FormatAuto {
		format = FormatTOML
	}

	data, err := parseContent([]byte(content), format)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config from string").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.LoadFromString").
			WithDetail("format", format.String())
	}

	return &Config{
		data:      data,
		format:    format,
		lookupEnv: os.LookupEnv,
	}, nil
}

// FromMap builds a configuration from in-memory values
func FromMap(data map[string]interface{}, envPrefix string) *Config {
	c := &Config{
		data:      make(map[string]interface{}),
		format:    FormatTOML,
		envPrefix: envPrefix,
		lookupEnv: os.LookupEnv,
	}
	if data != nil {
		c.data = deepCopyMap(data)
	}
	return c
}

// detectFormat determines the configuration format from file extension
func detectFormat(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// parseContent parses configuration content based on format
func parseContent(content []byte, format Format) (map[string]interface{}, error) {
	var data map[string]interface{}

	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, mdwerror.Wrap(err, "TOML parse error").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.parseContent")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, mdwerror.Wrap(err, "YAML parse error").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.parseContent")
		}
	default:
		return nil, mdwerror.New(fmt.Sprintf("unsupported format: %s", format)).
			WithCode(mdwerror.CodeInvalidInput).
			WithOperation("config.parseContent").
			WithDetail("format", format.String())
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	return data, nil
}

// mergeDefaults merges default values into configuration data. Nested
// sections merge key by key; file values win.
func mergeDefaults(data, defaults map[string]interface{}) map[string]interface{} {
	result := deepCopyMap(defaults)
	for k, v := range data {
		sub, isMap := v.(map[string]interface{})
		def, defIsMap := result[k].(map[string]interface{})
		if isMap && defIsMap {
			result[k] = mergeDefaults(sub, def)
			continue
		}
		result[k] = v
	}
	return result
}

// GetString returns a string configuration value with optional default
func (c *Config) GetString(key string, defaultValue ...string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if envValue, ok := c.getEnvValue(key); ok {
		return envValue
	}

	value := c.getValue(key)
	if value == nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetInt returns an integer configuration value with optional default
func (c *Config) GetInt(key string, defaultValue ...int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if envValue, ok := c.getEnvValue(key); ok {
		if intVal, err := strconv.Atoi(envValue); err == nil {
			return intVal
		}
	}

	switch v := c.getValue(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool returns a boolean configuration value with optional default
func (c *Config) GetBool(key string, defaultValue ...bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if envValue, ok := c.getEnvValue(key); ok {
		if boolVal, err := strconv.ParseBool(envValue); err == nil {
			return boolVal
		}
	}

	switch v := c.getValue(key).(type) {
	case bool:
		return v
	case string:
		if boolVal, err := strconv.ParseBool(v); err == nil {
			return boolVal
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetStringSlice returns a string slice configuration value with optional
// default. An environment override is split on commas.
func (c *Config) GetStringSlice(key string, defaultValue ...[]string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if envValue, ok := c.getEnvValue(key); ok {
		if strings.TrimSpace(envValue) == "" {
			return []string{}
		}
		parts := strings.Split(envValue, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	switch v := c.getValue(key).(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		result := make([]string, len(v))
		for i, item := range v {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result
	case string:
		return []string{v}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// getValue retrieves a configuration value by key (supports dot notation)
func (c *Config) getValue(key string) interface{} {
	keys := strings.Split(key, ".")
	current := c.data
	for i, k := range keys {
		if i == len(keys)-1 {
			return current[k]
		}
		next, ok := current[k].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// getEnvValue looks up the environment override for a key. Only configs
// with a prefix consult the environment.
func (c *Config) getEnvValue(key string) (string, bool) {
	if c.envPrefix == "" || c.lookupEnv == nil {
		return "", false
	}
	return c.lookupEnv(c.formatEnvKey(key))
}

// formatEnvKey converts a config key to environment variable format:
// parse.dialect with prefix CIFCHECK -> CIFCHECK_PARSE_DIALECT
func (c *Config) formatEnvKey(key string) string {
	envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if c.envPrefix != "" {
		envKey = strings.ToUpper(c.envPrefix) + "_" + envKey
	}
	return envKey
}

// EnvKey returns the environment variable consulted for key
func (c *Config) EnvKey(key string) string {
	return c.formatEnvKey(key)
}

// Has checks if a configuration key exists
func (c *Config) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.getEnvValue(key); ok {
		return true
	}
	return c.getValue(key) != nil
}

// Set sets a configuration value (runtime only, not persisted)
func (c *Config) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := strings.Split(key, ".")
	current := c.data
	for i, k := range keys {
		if i == len(keys)-1 {
			current[k] = value
			return
		}
		next, ok := current[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[k] = next
		}
		current = next
	}
}

// SetEnvPrefix enables environment overrides under prefix
func (c *Config) SetEnvPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.envPrefix = prefix
}

// GetAll returns a deep copy of all configuration data
func (c *Config) GetAll() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopyMap(c.data)
}

// FilePath returns the path of the loaded configuration file
func (c *Config) FilePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filePath
}

// Format returns the configuration file format
func (c *Config) Format() Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

func deepCopyMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		switch val := v.(type) {
		case map[string]interface{}:
			dst[k] = deepCopyMap(val)
		case []interface{}:
			dst[k] = append([]interface{}(nil), val...)
		case []string:
			dst[k] = append([]string(nil), val...)
		default:
			dst[k] = v
		}
	}
	return dst
}
