package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Config represents the gavel configuration.
type Config struct {
	BaseRef  string `json:"baseRef"`
	RuleFile string `json:"ruleFile,omitempty"`
	Format   string `json:"format"`
	GitHub   bool   `json:"github"`
	Comment  bool   `json:"comment"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		BaseRef: "origin/main",
		Format:  "text",
	}
}

// ConfigDir returns the platform-appropriate config directory for gavel.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gavel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "gavel"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gavel"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "gavel"), nil
	default:
		return filepath.Join(home, ".config", "gavel"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only non-zero values
// should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.BaseRef != "" {
		dst.BaseRef = src.BaseRef
	}
	if src.RuleFile != "" {
		dst.RuleFile = src.RuleFile
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
	dst.GitHub = dst.GitHub || src.GitHub
	dst.Comment = dst.Comment || src.Comment
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("GAVEL_BASE"); v != "" {
		cfg.BaseRef = v
	}
	if v := os.Getenv("GAVEL_RULEFILE"); v != "" {
		cfg.RuleFile = v
	}
	if v := os.Getenv("GAVEL_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("GAVEL_GITHUB"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.GitHub = b
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["baseRef"]; ok && v != "" {
		cfg.BaseRef = v
	}
	if v, ok := overrides["ruleFile"]; ok && v != "" {
		cfg.RuleFile = v
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["github"]; ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.GitHub = b
		}
	}
	if v, ok := overrides["comment"]; ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Comment = b
		}
	}
}

// SetField sets a single config field by key name. Returns error if key is
// unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "baseRef":
		cfg.BaseRef = value
	case "ruleFile":
		cfg.RuleFile = value
	case "format":
		cfg.Format = value
	case "github":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("github must be a boolean: %w", err)
		}
		cfg.GitHub = b
	case "comment":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("comment must be a boolean: %w", err)
		}
		cfg.Comment = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
