// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/model"
)

func newCredentialFile(t *testing.T) *CredentialFile {
	t.Helper()
	f, err := NewCredentialFile(t.TempDir(), "alice")
	if err != nil {
		t.Fatalf("NewCredentialFile: %v", err)
	}
	return f
}

func TestCredentialFile_RoundTrip(t *testing.T) {
	f := newCredentialFile(t)
	if filepath.Base(f.Path()) != "alice_passwords.dat" {
		t.Fatalf("unexpected file name %q", f.Path())
	}
	records := []model.Record{
		{Service: "github", Payload: "alice:Sup3rSecret!"},
		{Service: "mail", Payload: "a.smith:pa:ss:word"},
		{Service: "github", Payload: "work:Another0ne!"},
	}
	if err := f.Save(records); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Fatalf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}

	raw, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "github alice:Sup3rSecret!\nmail a.smith:pa:ss:word\ngithub work:Another0ne!\n"
	if string(raw) != want {
		t.Fatalf("unexpected file content:\n%s", raw)
	}
}

func TestCredentialFile_SaveEmptyTruncates(t *testing.T) {
	f := newCredentialFile(t)
	if err := f.Save([]model.Record{{Service: "a", Payload: "u:p"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := f.Save(nil); err != nil {
		t.Fatalf("Save(nil): %v", err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty load, got %v", got)
	}
}

func TestCredentialFile_LoadMissing(t *testing.T) {
	f := newCredentialFile(t)
	ok, err := f.Exists()
	if err != nil || ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}
	_, err = f.Load()
	if !errors.Is(err, apperr.ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
	if !errors.Is(err, &apperr.Error{Kind: apperr.KindFileAccess, Op: apperr.OpRead}) {
		t.Fatalf("expected a read failure, got %v", err)
	}
}

func TestCredentialFile_LoadPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	f := newCredentialFile(t)
	if err := os.WriteFile(f.Path(), []byte("a u:p\n"), 0o000); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := f.Load()
	if !errors.Is(err, apperr.ErrFilePermission) {
		t.Fatalf("expected ErrFilePermission, got %v", err)
	}
}

func TestCredentialFile_InvalidRecordFormat(t *testing.T) {
	cases := []struct {
		name    string
		content string
		line    int
	}{
		{"single field", "github alice:pw\nbroken\n", 2},
		{"three fields", "github alice:pw extra\n", 1},
		{"missing separator", "\n\ngithub alicepw\n", 3},
		{"line too long", "github alice:pw\n" + strings.Repeat("x", 2<<20) + "\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCredentialFile(t)
			if err := os.WriteFile(f.Path(), []byte(tc.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := f.Load()
			if !errors.Is(err, apperr.ErrInvalidRecordFormat) {
				t.Fatalf("expected ErrInvalidRecordFormat, got %v", err)
			}
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Line != tc.line {
				t.Fatalf("expected line %d, got %+v", tc.line, ae)
			}
		})
	}
}

func TestCredentialFile_BlankLinesAndTabsTolerated(t *testing.T) {
	f := newCredentialFile(t)
	if err := os.WriteFile(f.Path(), []byte("\n  \ngithub\talice:pw\n\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Service != "github" || got[0].Payload != "alice:pw" {
		t.Fatalf("unexpected records %v", got)
	}
}

func TestCredentialFile_InvalidRecordLeavesFileUntouched(t *testing.T) {
	f := newCredentialFile(t)
	if err := f.Save([]model.Record{{Service: "github", Payload: "alice:pw"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	err := f.Save([]model.Record{{Service: "bad service", Payload: "u:p"}})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	got, err := f.Load()
	if err != nil || len(got) != 1 || got[0].Service != "github" {
		t.Fatalf("previous content lost: %v, %v", got, err)
	}
}

func TestCredentialFile_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	f, err := NewCredentialFile(dir, "alice")
	if err != nil {
		t.Fatalf("NewCredentialFile: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := f.Save([]model.Record{{Service: "s", Payload: "u:p"}}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "alice_passwords.dat" {
		t.Fatalf("unexpected directory content: %v", entries)
	}
}

func TestNewCredentialFile_RejectsUnsafeOwner(t *testing.T) {
	if _, err := NewCredentialFile(t.TempDir(), "../evil"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
