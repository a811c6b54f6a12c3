// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestArena_ReleaseRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)

	p1, err := a.Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	f, err := a.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = f.Close()

	if p1 == f.Name() {
		t.Fatalf("scratch paths must be unique")
	}
	if !strings.HasPrefix(filepath.Base(p1), "temp_user_credentials-") {
		t.Fatalf("unexpected scratch name %q", p1)
	}
	if got := len(listDir(t, dir)); got != 2 {
		t.Fatalf("expected 2 scratch files, got %d", got)
	}

	if err := a.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := listDir(t, dir); len(got) != 0 {
		t.Fatalf("expected empty dir after release, got %v", got)
	}
	if err := a.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestArena_ForgetKeepsRenamedFile(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)
	p, err := a.Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	final := filepath.Join(dir, "final")
	if err := os.Rename(p, final); err != nil {
		t.Fatalf("rename: %v", err)
	}
	a.Forget(p)
	if a.Len() != 0 {
		t.Fatalf("expected no tracked files, got %d", a.Len())
	}
	if err := a.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("renamed file must survive release: %v", err)
	}
}

func TestArena_ReleaseToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	a := New(dir)
	p, err := a.Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := a.Release(); err != nil {
		t.Fatalf("Release with already removed file: %v", err)
	}
}

func TestReleaseAll(t *testing.T) {
	dir := t.TempDir()
	before := Active()
	a, b := New(dir), New(dir)
	if _, err := a.Path(); err != nil {
		t.Fatalf("Path: %v", err)
	}
	if _, err := b.Path(); err != nil {
		t.Fatalf("Path: %v", err)
	}
	if Active() < before+2 {
		t.Fatalf("expected arenas to be registered")
	}
	if err := ReleaseAll(); err != nil {
		t.Fatalf("ReleaseAll: %v", err)
	}
	if Active() != 0 {
		t.Fatalf("expected no active arenas, got %d", Active())
	}
	if got := listDir(t, dir); len(got) != 0 {
		t.Fatalf("expected empty dir, got %v", got)
	}
}

func TestCreate_MakesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	a := New(dir)
	defer func() { _ = a.Release() }()
	f, err := a.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = f.Close()
	if _, err := os.Stat(f.Name()); err != nil {
		t.Fatalf("expected scratch file: %v", err)
	}
}
