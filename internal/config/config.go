// Package config loads and persists the client configuration. Settings come
// from ~/.keita/config.json, overridden by environment variables (a .env file
// in the working directory is honored).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds user preferences for the storefront client.
type Config struct {
	APIURL         string `json:"api_url"`
	Theme          string `json:"theme"` // "light" or "dark"
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		APIURL:         "http://localhost:8080/api",
		Theme:          "light",
		TimeoutSeconds: 30,
	}
}

// Dir returns the directory where client state is stored.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".keita"), nil
}

// File returns the full path to the config file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// CredentialFile returns the path where the session credential is persisted.
func CredentialFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// LogFile returns the path of the client log. The TUI owns stdout, so logs
// go to a file.
func LogFile() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "keita.log"), nil
}

// Load reads the configuration from disk and applies environment overrides.
func Load() (Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path, err := File()
	if err != nil {
		return applyEnv(cfg), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return applyEnv(cfg), nil
	}
	if err != nil {
		return applyEnv(cfg), err
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return applyEnv(DefaultConfig()), err
	}
	return applyEnv(cfg), nil
}

// Save writes the configuration to disk.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path, err := File()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnv layers environment variables over cfg.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("KEITA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("KEITA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("KEITA_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
	return cfg
}
