// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package testutil provides codec doubles for inducing failures in storage
// and auth tests.
package testutil

import (
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/toeirei/passvault/internal/codec"
)

// ErrInduced is returned by FaultyCodec when a failure is requested.
var ErrInduced = errors.New("induced codec failure")

// FaultyCodec wraps a real codec and fails the requested direction. A
// failing call still writes a partial output file first, the way a real
// compressor may die halfway through.
type FaultyCodec struct {
	Inner          codec.Codec
	FailCompress   bool
	FailDecompress bool

	Compressions   int
	Decompressions int
}

// NewFaultyCodec wraps the default codec.
func NewFaultyCodec() *FaultyCodec {
	c, _ := codec.New(codec.Default)
	return &FaultyCodec{Inner: c}
}

// Name implements codec.Codec.
func (f *FaultyCodec) Name() string { return "faulty-" + f.Inner.Name() }

// Compress implements codec.Codec.
func (f *FaultyCodec) Compress(src, dst string) error {
	f.Compressions++
	if f.FailCompress {
		_ = os.WriteFile(dst, []byte("partial"), 0o600)
		return ErrInduced
	}
	return f.Inner.Compress(src, dst)
}

// Decompress implements codec.Codec.
func (f *FaultyCodec) Decompress(src, dst string) error {
	f.Decompressions++
	if f.FailDecompress {
		_ = os.WriteFile(dst, []byte("partial"), 0o600)
		return ErrInduced
	}
	return f.Inner.Decompress(src, dst)
}

// DirListing returns the sorted names in dir.
func DirListing(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir %s: %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// SameListing fails the test when the two listings differ.
func SameListing(t testing.TB, before, after []string) {
	t.Helper()
	if len(before) != len(after) {
		t.Fatalf("directory changed: before=%v after=%v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("directory changed: before=%v after=%v", before, after)
		}
	}
}
