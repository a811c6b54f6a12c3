// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	cfg "github.com/toeirei/passvault/internal/config"
	"gopkg.in/yaml.v3"
)

// isolate points the user config dir at an empty temp dir and runs from
// another so no real passvault.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	return home
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	c, err := cfg.Load(&cobra.Command{}, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "." || c.Codec != "huffman" || !c.Master.Hash || c.Vault.Duplicates != "append" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Language != "en" || c.LogLevel != "warn" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_ReadsExplicitFile(t *testing.T) {
	isolate(t)
	file := filepath.Join(t.TempDir(), "custom.yaml")
	data := "data_dir: /srv/vault\ncodec: zstd\nmaster:\n  hash: false\nvault:\n  duplicates: reject\n"
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := cfg.Load(&cobra.Command{}, file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "/srv/vault" || c.Codec != "zstd" || c.Master.Hash || c.Vault.Duplicates != "reject" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.Language != "en" {
		t.Fatalf("unset keys must keep defaults, got %q", c.Language)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := cfg.Load(&cobra.Command{}, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("passvault.yaml", []byte("language: de\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := cfg.Load(&cobra.Command{}, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Language != "de" {
		t.Fatalf("language = %q, want de", c.Language)
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("passvault.yaml", []byte("codec: zstd\nlog_level: info\nvault:\n  duplicates: reject\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PASSVAULT_LOG_LEVEL", "debug")
	t.Setenv("PASSVAULT_VAULT_DUPLICATES", "replace")

	cmd := &cobra.Command{}
	cmd.Flags().String("data-dir", ".", "")
	cmd.Flags().String("codec", "huffman", "")
	if err := cmd.Flags().Parse([]string{"--data-dir", "/from/flag"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	c, err := cfg.Load(cmd, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "/from/flag" {
		t.Fatalf("flag must win, got %q", c.DataDir)
	}
	if c.Codec != "zstd" {
		t.Fatalf("unchanged flag must not override file, got %q", c.Codec)
	}
	if c.LogLevel != "debug" || c.Vault.Duplicates != "replace" {
		t.Fatalf("env must override file: %+v", c)
	}
}

func TestWriteConfigFile_CreatesFile(t *testing.T) {
	isolate(t)
	c := cfg.Config{DataDir: "/data", Codec: "zstd", Language: "de"}
	c.Master.Hash = true

	path, err := cfg.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile failed: %v", err)
	}
	want, err := cfg.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath failed: %v", err)
	}
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file at %s, stat error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var back cfg.Config
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Fatalf("written config = %+v, want %+v", back, c)
	}
}
