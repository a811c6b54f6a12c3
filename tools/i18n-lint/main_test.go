// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadKeys_Flattens(t *testing.T) {
	p := filepath.Join(t.TempDir(), "en.yaml")
	writeFile(t, p, "top:\n  sub: value\nflat.key: v\n")
	keys, err := loadKeys(p)
	if err != nil {
		t.Fatalf("loadKeys: %v", err)
	}
	for _, k := range []string{"top.sub", "flat.key"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("expected key %q, got %v", k, keys)
		}
	}
}

func TestFindUsedKeys_SkipsTestsAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cmd", "a.go"), `package x
func f() { _ = i18n.T("my.key", 1); _ = i18n.T("other.key") }`)
	writeFile(t, filepath.Join(root, "cmd", "a_test.go"), `package x
func g() { _ = i18n.T("test.only") }`)
	writeFile(t, filepath.Join(root, "_examples", "b.go"), `package y
func h() { _ = i18n.T("example.key") }`)

	used, err := findUsedKeys(root)
	if err != nil {
		t.Fatalf("findUsedKeys: %v", err)
	}
	if len(used) != 2 {
		t.Fatalf("expected 2 keys, got %v", used)
	}
	if _, ok := used["my.key"]; !ok {
		t.Fatalf("expected my.key in %v", used)
	}
}

func TestLint_ReportsMissingAndOrphaned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), `package main
func f() { _ = i18n.T("a.one"); _ = i18n.T("a.two") }`)
	locales := filepath.Join(root, "locales")
	writeFile(t, filepath.Join(locales, "en.yaml"), "a.one: One\na.two: Two\na.unused: X\n")
	writeFile(t, filepath.Join(locales, "de.yaml"), "a.one: Eins\n")

	var out bytes.Buffer
	ok, err := lint(&out, root, locales)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if ok {
		t.Fatalf("expected failure for missing German key")
	}
	if !strings.Contains(out.String(), "missing de.yaml: a.two") {
		t.Fatalf("missing key not reported:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "orphaned en.yaml: a.unused") {
		t.Fatalf("orphaned key not reported:\n%s", out.String())
	}
}

func TestLint_RepositoryLocalesAreComplete(t *testing.T) {
	root := filepath.Join("..", "..")
	var out bytes.Buffer
	ok, err := lint(&out, root, filepath.Join(root, localesDir))
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if !ok {
		t.Fatalf("locale files are incomplete:\n%s", out.String())
	}
}
