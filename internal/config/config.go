// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/jeranaias/syna-omnibox/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete omnibox configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	API       APIConfig       `toml:"api" json:"api"`
	Registry  RegistryConfig  `toml:"registry" json:"registry"`
	Telemetry TelemetryConfig `toml:"telemetry" json:"telemetry"`
	Composer  ComposerConfig  `toml:"composer" json:"composer"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	User      UserConfig      `toml:"user" json:"user"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	// BaseURL is the backend root, without the /api/v1 prefix
	BaseURL string `toml:"base_url" json:"base_url"`
	// Token is sent as a bearer token when set
	Token       string  `toml:"token" json:"token"`
	TimeoutSecs int     `toml:"timeout_secs" json:"timeout_secs"`
	RatePerSec  float64 `toml:"rate_per_sec" json:"rate_per_sec"`
	Burst       int     `toml:"burst" json:"burst"`
	// Offline disables every backend call; built-in commands still work
	Offline bool `toml:"offline" json:"offline"`
}

// RegistryConfig configures the command manifest cache.
type RegistryConfig struct {
	CacheTTLSecs int `toml:"cache_ttl_secs" json:"cache_ttl_secs"`
	// ManifestFile overrides the backend manifest with a local JSON/YAML file
	ManifestFile string `toml:"manifest_file" json:"manifest_file"`
	// MinManifestVersion rejects older manifests (semver, empty = any)
	MinManifestVersion string `toml:"min_manifest_version" json:"min_manifest_version"`
}

// TelemetryConfig configures command telemetry.
type TelemetryConfig struct {
	Enabled    bool `toml:"enabled" json:"enabled"`
	BufferSize int  `toml:"buffer_size" json:"buffer_size"`
	// Remote sends entries to the backend
	Remote bool `toml:"remote" json:"remote"`
	// Persist stores entries in the local database
	Persist bool `toml:"persist" json:"persist"`
}

// ComposerConfig configures the message composer.
type ComposerConfig struct {
	DebounceMS int `toml:"debounce_ms" json:"debounce_ms"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// OmniboxMode is "global" (full palette) or "inline" (under the composer)
	OmniboxMode string `toml:"omnibox_mode" json:"omnibox_mode"`
}

// StorageConfig configures the local state database.
type StorageConfig struct {
	// Path of the SQLite database (empty = ~/.syna/omnibox.db)
	Path string `toml:"path" json:"path"`
}

// UserConfig identifies the session user.
type UserConfig struct {
	ID          string `toml:"id" json:"id"`
	WorkspaceID string `toml:"workspace_id" json:"workspace_id"`
}

// Timeout returns the request timeout.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// CacheTTL returns the manifest cache lifetime.
func (r RegistryConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSecs) * time.Second
}

// Debounce returns the mention search quiet period.
func (c ComposerConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			BaseURL:     "http://127.0.0.1:8000",
			TimeoutSecs: 15,
			RatePerSec:  20,
			Burst:       40,
		},

		Registry: RegistryConfig{
			CacheTTLSecs: 300, // 5 minutes
		},

		Telemetry: TelemetryConfig{
			Enabled:    true,
			BufferSize: 50,
			Remote:     true,
			Persist:    true,
		},

		Composer: ComposerConfig{
			DebounceMS: 150,
		},

		UI: UIConfig{
			Theme:       "dark",
			OmniboxMode: "global",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".syna"), nil
}

// StoragePath returns the database path, defaulting to the config dir.
func (c *Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "omnibox.db"), nil
}

// ensureSecurePermissions tightens config files to 0600; they hold the API token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.syna. TOML is tried first, then JSON,
// then defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	return LoadDir(dir)
}

// LoadDir loads config.toml or config.json from dir. A missing file yields
// the defaults; a broken file yields the defaults plus the load error.
func LoadDir(dir string) (*Config, error) {
	var loadErr error

	for _, name := range []string{"config.toml", "config.json"} {
		path := filepath.Join(dir, name)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		if loadErr == nil {
			loadErr = err
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific file with full validation. Files ending in
// .json are read as JSON, anything else as TOML. Keys absent from the file
// keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string) (*Config, error) {
	cfg := Default()
	if isJSON(path) {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}

// ReadDir loads the file stored in dir for editing: no environment
// overrides are applied, so saving it back writes only what the file said
// plus the edit. path is the existing file, or config.toml when dir has
// none yet.
func ReadDir(dir string) (cfg *Config, path string, err error) {
	for _, name := range []string{"config.toml", "config.json"} {
		candidate := filepath.Join(dir, name)
		if _, statErr := os.Stat(candidate); statErr != nil {
			continue
		}
		cfg, err := decodeFile(candidate)
		if err != nil {
			return nil, "", err
		}
		cfg.SetDefaults()
		return cfg, candidate, nil
	}
	return Default(), filepath.Join(dir, "config.toml"), nil
}

// SetDefaults fills zero-valued fields that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.Registry.CacheTTLSecs == 0 {
		c.Registry.CacheTTLSecs = defaults.Registry.CacheTTLSecs
	}
	if c.Telemetry.BufferSize == 0 {
		c.Telemetry.BufferSize = defaults.Telemetry.BufferSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.OmniboxMode == "" {
		c.UI.OmniboxMode = defaults.UI.OmniboxMode
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path, as JSON for .json files and TOML otherwise.
func Save(cfg *Config, path string) error {
	if isJSON(path) {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with a short header. The write is atomic and
// the file is created 0600.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# syna-omnibox configuration file\n")
	buf.WriteString("# Generated by syna-omnibox - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON, atomically and 0600.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil {
		add("api.base_url", "invalid URL: %v", err)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "must be an http(s) URL with a host, got '%s'", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 300 {
		add("api.timeout_secs", "must be 1-300, got %d", c.API.TimeoutSecs)
	}
	if c.API.RatePerSec < 0 {
		add("api.rate_per_sec", "cannot be negative")
	}
	if c.API.Burst < 0 {
		add("api.burst", "cannot be negative")
	}
	if c.API.RatePerSec > 0 && c.API.Burst == 0 {
		add("api.burst", "must be positive when rate_per_sec is set")
	}

	// Registry
	if c.Registry.CacheTTLSecs < 0 {
		add("registry.cache_ttl_secs", "must be non-negative")
	}
	if v := c.Registry.MinManifestVersion; v != "" {
		if _, err := semver.NewVersion(v); err != nil {
			add("registry.min_manifest_version", "invalid semantic version '%s'", v)
		}
	}

	// Telemetry
	if c.Telemetry.BufferSize < 1 || c.Telemetry.BufferSize > 10000 {
		add("telemetry.buffer_size", "must be 1-10000, got %d", c.Telemetry.BufferSize)
	}

	// Composer
	if c.Composer.DebounceMS < 0 || c.Composer.DebounceMS > 5000 {
		add("composer.debounce_ms", "must be 0-5000, got %d", c.Composer.DebounceMS)
	}

	// UI
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}
	validModes := map[string]bool{"global": true, "inline": true}
	if !validModes[strings.ToLower(c.UI.OmniboxMode)] {
		add("ui.omnibox_mode", "invalid mode '%s', must be one of: global, inline", c.UI.OmniboxMode)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SYNA_API_URL: overrides api.base_url
//   - SYNA_API_TOKEN: overrides api.token
//   - SYNA_USER_ID: overrides user.id
//   - SYNA_WORKSPACE_ID: overrides user.workspace_id
//   - SYNA_MANIFEST_FILE: overrides registry.manifest_file
//   - SYNA_OFFLINE: "1" or "true" disables backend calls
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SYNA_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SYNA_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("SYNA_USER_ID"); v != "" {
		c.User.ID = v
	}
	if v := os.Getenv("SYNA_WORKSPACE_ID"); v != "" {
		c.User.WorkspaceID = v
	}
	if v := os.Getenv("SYNA_MANIFEST_FILE"); v != "" {
		c.Registry.ManifestFile = v
	}
	if v := os.Getenv("SYNA_OFFLINE"); v != "" {
		c.API.Offline = v == "1" || strings.ToLower(v) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	if value == nil {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.token",
		"api.timeout_secs",
		"api.rate_per_sec",
		"api.burst",
		"api.offline",
		"registry.cache_ttl_secs",
		"registry.manifest_file",
		"registry.min_manifest_version",
		"telemetry.enabled",
		"telemetry.buffer_size",
		"telemetry.remote",
		"telemetry.persist",
		"composer.debounce_ms",
		"ui.theme",
		"ui.omnibox_mode",
		"storage.path",
		"user.id",
		"user.workspace_id",
	}
}

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as JSON with the API token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Token != "" {
		safe.API.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
