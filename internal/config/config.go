// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads Passvault settings from defaults, a passvault.yaml
// file, PASSVAULT_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	User     string       `mapstructure:"user" yaml:"user,omitempty"`
	DataDir  string       `mapstructure:"data_dir" yaml:"data_dir"`
	Codec    string       `mapstructure:"codec" yaml:"codec"`
	Master   MasterConfig `mapstructure:"master" yaml:"master"`
	Vault    VaultConfig  `mapstructure:"vault" yaml:"vault"`
	Language string       `mapstructure:"language" yaml:"language"`
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
}

// MasterConfig controls how master entries are stored.
type MasterConfig struct {
	// Hash stores master passwords as bcrypt hashes instead of plaintext.
	Hash bool `mapstructure:"hash" yaml:"hash"`
}

// VaultConfig controls vault behavior.
type VaultConfig struct {
	// Duplicates is one of append, reject or replace.
	Duplicates string `mapstructure:"duplicates" yaml:"duplicates"`
}

// Defaults returns the built-in default values keyed by their viper path.
func Defaults() map[string]any {
	return map[string]any{
		"user":             "",
		"data_dir":         ".",
		"codec":            "huffman",
		"master.hash":      true,
		"vault.duplicates": "append",
		"language":         "en",
		"log_level":        "warn",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Passvault")
		default:
			configDir = "/etc/passvault"
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(dir, "passvault")
	}
	return filepath.Join(configDir, "passvault.yaml"), nil
}

// LoadConfig resolves a T from defaults, the first passvault.yaml found,
// the environment and the flags of cmd. explicitPath, when non-empty,
// replaces the search for a config file and must exist.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("passvault")
	v.SetConfigType("yaml")
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicitPath != "" || !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("passvault")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return c, bindErr
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Load is LoadConfig for the application Config with the built-in defaults.
func Load(cmd *cobra.Command, explicitPath string) (Config, error) {
	return LoadConfig[Config](cmd, Defaults(), explicitPath)
}

// WriteConfigFile writes c as YAML to the user or system config path and
// returns that path.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
