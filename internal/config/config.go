// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/aimednow/internal/util"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AIMEDNOW_"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aimednow configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// API is the remote QnA/EHR service
	API APIConfig `toml:"api" json:"api" yaml:"api" envPrefix:"API_"`

	// Storage selects where the transcript, theme and answer cache live
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage" envPrefix:"STORAGE_"`

	UI UIConfig `toml:"ui" json:"ui" yaml:"ui" envPrefix:"UI_"`

	Log LogConfig `toml:"log" json:"log" yaml:"log" envPrefix:"LOG_"`

	// Server is the local widget API started by "aimednow serve"
	Server ServerConfig `toml:"server" json:"server" yaml:"server" envPrefix:"SERVER_"`

	// Watch configures "aimednow watch"
	Watch WatchConfig `toml:"watch" json:"watch" yaml:"watch" envPrefix:"WATCH_"`
}

// APIConfig contains the remote service endpoints.
type APIConfig struct {
	// BaseURL is the scheme and host of the QnA/EHR service
	BaseURL string `toml:"base_url" json:"base_url" yaml:"base_url" env:"BASE_URL"`
	// QnAPath is the question endpoint path
	QnAPath string `toml:"qna_path" json:"qna_path" yaml:"qna_path" env:"QNA_PATH"`
	// UploadPath is the EHR upload endpoint path
	UploadPath string `toml:"upload_path" json:"upload_path" yaml:"upload_path" env:"UPLOAD_PATH"`
	// TimeoutSecs bounds a single request; 0 waits until the server answers
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" env:"TIMEOUT_SECS"`
}

// StorageConfig contains key-value store settings.
type StorageConfig struct {
	// Backend is one of "sqlite", "redis", "memory"
	Backend string `toml:"backend" json:"backend" yaml:"backend" env:"BACKEND"`
	// Path is the SQLite database file (empty = ~/.aimednow/aimednow.db)
	Path string `toml:"path" json:"path" yaml:"path" env:"PATH"`
	// RedisURL is used when Backend is "redis"
	RedisURL string `toml:"redis_url" json:"redis_url" yaml:"redis_url" env:"REDIS_URL"`
	// KeyPrefix namespaces keys, so several profiles can share one store
	KeyPrefix string `toml:"key_prefix" json:"key_prefix" yaml:"key_prefix" env:"KEY_PREFIX"`
	// EncryptAnswers seals the EHR answer cache with AIMEDNOW_PASSPHRASE
	EncryptAnswers bool `toml:"encrypt_answers" json:"encrypt_answers" yaml:"encrypt_answers" env:"ENCRYPT_ANSWERS"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the initial theme when none is stored: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme" yaml:"theme" env:"THEME"`
	// WordWrap is the markdown wrap width for CLI output
	WordWrap int `toml:"word_wrap" json:"word_wrap" yaml:"word_wrap" env:"WORD_WRAP"`
	// ConfirmDelete asks before deleting all chats
	ConfirmDelete bool `toml:"confirm_delete" json:"confirm_delete" yaml:"confirm_delete" env:"CONFIRM_DELETE"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level" json:"level" yaml:"level" env:"LEVEL"`
	// Dir holds the daily log files (empty = ~/.aimednow/logs)
	Dir string `toml:"dir" json:"dir" yaml:"dir" env:"DIR"`
}

// ServerConfig contains the local HTTP API configuration.
type ServerConfig struct {
	Host string `toml:"host" json:"host" yaml:"host" env:"HOST"`
	Port int    `toml:"port" json:"port" yaml:"port" env:"PORT"`
	// RateLimit is the sustained requests per second per client IP
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" yaml:"rate_limit" env:"RATE_LIMIT"`
	// AllowedOrigins for CORS; empty allows loopback origins only
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	// Token, when set, is required as "Authorization: Bearer <token>"
	Token string `toml:"token" json:"token" yaml:"token" env:"TOKEN"`
}

// WatchConfig contains inbox watcher configuration.
type WatchConfig struct {
	DebounceMs       int `toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms" env:"DEBOUNCE_MS"`
	MaxConcurrent    int `toml:"max_concurrent" json:"max_concurrent" yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	UploadsPerMinute int `toml:"uploads_per_minute" json:"uploads_per_minute" yaml:"uploads_per_minute" env:"UPLOADS_PER_MINUTE"`
}

// Timeout returns the request timeout, zero when disabled.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// Debounce returns the watcher debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			BaseURL:     "http://localhost:5000",
			QnAPath:     "/api/qna",
			UploadPath:  "/api/upload_ehr",
			TimeoutSecs: 0,
		},

		Storage: StorageConfig{
			Backend:        "sqlite",
			EncryptAnswers: false,
		},

		UI: UIConfig{
			Theme:         "dark",
			WordWrap:      80,
			ConfirmDelete: true,
		},

		Log: LogConfig{
			Level: "info",
		},

		Server: ServerConfig{
			Host:      "127.0.0.1",
			Port:      8790,
			RateLimit: 5,
		},

		Watch: WatchConfig{
			DebounceMs:       500,
			MaxConcurrent:    2,
			UploadsPerMinute: 30,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the aimednow configuration directory path.
// AIMEDNOW_HOME overrides the default ~/.aimednow.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aimednow"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: the config may carry a redis password inside redis_url.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

type loader struct {
	path func() (string, error)
	load func(*Config, string) error
	name string
}

var loaders = []loader{
	{ConfigPathTOML, LoadTOML, "TOML"},
	{ConfigPathJSON, LoadJSON, "JSON"},
	{ConfigPathYAML, LoadYAML, "YAML"},
}

// Load loads configuration from the first config file found.
// Tries TOML, then JSON, then YAML, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	for _, l := range loaders {
		path, err := l.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := l.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", l.name, err)
			continue
		}
		if err := cfg.finish(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}

	// Defaults are still usable; loadErr is informational.
	return cfg, loadErr
}

// finish applies env overrides, defaults and validation.
func (c *Config) finish() error {
	if err := c.ApplyEnvOverrides(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
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

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// The format is chosen by extension; anything unknown is read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.QnAPath == "" {
		c.API.QnAPath = d.API.QnAPath
	}
	if c.API.UploadPath == "" {
		c.API.UploadPath = d.API.UploadPath
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)

	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = d.Server.RateLimit
	}

	if c.Watch.DebounceMs == 0 {
		c.Watch.DebounceMs = d.Watch.DebounceMs
	}
	if c.Watch.MaxConcurrent == 0 {
		c.Watch.MaxConcurrent = d.Watch.MaxConcurrent
	}
	if c.Watch.UploadsPerMinute == 0 {
		c.Watch.UploadsPerMinute = d.Watch.UploadsPerMinute
	}
}

// DBPath returns the SQLite path, defaulting into the config dir.
func (c *Config) DBPath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return configPath("aimednow.db")
}

// LogDir returns the log directory, defaulting into the config dir.
func (c *Config) LogDir() (string, error) {
	if c.Log.Dir != "" {
		return c.Log.Dir, nil
	}
	return configPath("logs")
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# aimednow configuration file\n")
	buf.WriteString("# Generated by aimednow - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL %q, expected scheme://host[:port]", c.API.BaseURL),
		})
	}
	for field, p := range map[string]string{"api.qna_path": c.API.QnAPath, "api.upload_path": c.API.UploadPath} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("path %q must start with /", p)})
		}
	}
	if c.API.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.timeout_secs", Message: "cannot be negative"})
	}

	switch c.Storage.Backend {
	case "sqlite", "memory":
	case "redis":
		if c.Storage.RedisURL == "" {
			errs = append(errs, ValidationError{Field: "storage.redis_url", Message: "required when backend is redis"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: sqlite, redis, memory", c.Storage.Backend),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 400 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: fmt.Sprintf("must be 20-400, got %d", c.UI.WordWrap)})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{Field: "server.port", Message: fmt.Sprintf("must be 1-65535, got %d", c.Server.Port)})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "cannot be negative"})
	}

	if c.Watch.DebounceMs < 0 {
		errs = append(errs, ValidationError{Field: "watch.debounce_ms", Message: "cannot be negative"})
	}
	if c.Watch.MaxConcurrent < 1 || c.Watch.MaxConcurrent > 32 {
		errs = append(errs, ValidationError{Field: "watch.max_concurrent", Message: fmt.Sprintf("must be 1-32, got %d", c.Watch.MaxConcurrent)})
	}
	if c.Watch.UploadsPerMinute < 1 {
		errs = append(errs, ValidationError{Field: "watch.uploads_per_minute", Message: "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies AIMEDNOW_* environment variables to the config.
//
// Examples:
//   - AIMEDNOW_API_BASE_URL: overrides api.base_url
//   - AIMEDNOW_API_TIMEOUT_SECS: overrides api.timeout_secs
//   - AIMEDNOW_STORAGE_BACKEND: overrides storage.backend
//   - AIMEDNOW_STORAGE_REDIS_URL: overrides storage.redis_url
//   - AIMEDNOW_UI_THEME: overrides ui.theme
//   - AIMEDNOW_LOG_LEVEL: overrides log.level
//
// Variables that are not set leave the loaded value untouched.
func (c *Config) ApplyEnvOverrides() error {
	return env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix})
}

// Passphrase returns the answer-cache passphrase from the environment.
// It is never read from or written to the config file.
func Passphrase() string {
	return os.Getenv(EnvPrefix + "PASSPHRASE")
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
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.base_url",
		"api.qna_path",
		"api.upload_path",
		"api.timeout_secs",
		"storage.backend",
		"storage.path",
		"storage.redis_url",
		"storage.key_prefix",
		"storage.encrypt_answers",
		"ui.theme",
		"ui.word_wrap",
		"ui.confirm_delete",
		"log.level",
		"log.dir",
		"server.host",
		"server.port",
		"server.rate_limit",
		"server.allowed_origins",
		"server.token",
		"watch.debounce_ms",
		"watch.max_concurrent",
		"watch.uploads_per_minute",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}
	return &clone
}

// String returns a JSON rendering with the redis credentials redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Storage.RedisURL != "" {
		if u, err := url.Parse(safe.Storage.RedisURL); err == nil && u.User != nil {
			u.User = url.User("[REDACTED]")
			safe.Storage.RedisURL = u.String()
		}
	}
	if safe.Server.Token != "" {
		safe.Server.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
