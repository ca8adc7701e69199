// Package config reads and writes the csvpeek YAML settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName names the config directory and the keyring service.
const AppName = "csvpeek"

// Config is the on-disk settings file. Zero values mean "use the default".
type Config struct {
	FileName       string `yaml:"file_name,omitempty"`
	PreviewRows    int    `yaml:"preview_rows,omitempty"`
	Delimiter      string `yaml:"delimiter,omitempty"`
	OutputFormat   string `yaml:"output_format,omitempty"`   // text, json, ndjson, yaml, table
	KeyringBackend string `yaml:"keyring_backend,omitempty"` // auto, keychain, file
	LogLevel       string `yaml:"log_level,omitempty"`       // debug, info, warn, error
	SeqURL         string `yaml:"seq_url,omitempty"`
}

// ConfigDir is $XDG_CONFIG_HOME/csvpeek, falling back to ~/.config/csvpeek.
func ConfigDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); filepath.IsAbs(xdg) {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureKeyringDir creates the file keyring directory with owner-only access.
func EnsureKeyringDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "keyring")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create keyring directory: %w", err)
	}
	return dir, nil
}

// ReadConfig loads the file at DefaultConfigPath.
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load reads path. A missing or empty file yields an empty config; unknown
// keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks values that YAML typing alone cannot.
func (c *Config) Validate() error {
	if c.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must not be negative, got %d", c.PreviewRows)
	}
	switch strings.ToLower(strings.TrimSpace(c.KeyringBackend)) {
	case "", "auto", "keychain", "file":
	default:
		return fmt.Errorf("keyring_backend must be auto, keychain or file, got %q", c.KeyringBackend)
	}
	return nil
}

// Save writes c to path through a temp file in the same directory, so a
// crash never leaves a truncated config behind.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
