// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func roundTripInputs() map[string][]byte {
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 3*huffBlockMax+17)
	rng.Read(random)

	text := []byte(strings.Repeat("alice,$2a$10$abcdefghijklmnopqrstuv\nbob,hunter2pass\n", 4000))

	skewed := make([]byte, huffBlockMax+5)
	for i := range skewed {
		if rng.Intn(10) == 0 {
			skewed[i] = byte('a' + rng.Intn(26))
		} else {
			skewed[i] = 'e'
		}
	}

	return map[string][]byte{
		"empty":       {},
		"single byte": {'x'},
		"uniform":     bytes.Repeat([]byte{0}, 2*huffBlockMax+3),
		"master line": []byte("alice,hunter2pass\n"),
		"text":        text,
		"skewed":      skewed,
		"random":      random,
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	for _, name := range Names() {
		c, err := New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		for label, data := range roundTripInputs() {
			t.Run(name+"/"+label, func(t *testing.T) {
				dir := t.TempDir()
				src := filepath.Join(dir, "plain")
				packed := filepath.Join(dir, "packed")
				back := filepath.Join(dir, "back")
				if err := os.WriteFile(src, data, 0o600); err != nil {
					t.Fatalf("write input: %v", err)
				}
				if err := c.Compress(src, packed); err != nil {
					t.Fatalf("Compress: %v", err)
				}
				if err := c.Decompress(packed, back); err != nil {
					t.Fatalf("Decompress: %v", err)
				}
				got, err := os.ReadFile(back)
				if err != nil {
					t.Fatalf("read output: %v", err)
				}
				if !bytes.Equal(got, data) {
					t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
				}
			})
		}
	}
}

func TestHuffman_CompressesSkewedText(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	packed := filepath.Join(dir, "packed")
	data := []byte(strings.Repeat("aaaaaaab", 8192))
	if err := os.WriteFile(src, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewHuffman().Compress(src, packed); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	fi, err := os.Stat(packed)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() >= int64(len(data)) {
		t.Fatalf("expected compression, got %d >= %d", fi.Size(), len(data))
	}
}

func TestDecompress_CorruptInputRemovesOutput(t *testing.T) {
	cases := map[string][]byte{
		"bad magic":       []byte("NOPE"),
		"truncated":       append([]byte(huffMagic), blockRaw, 10, 10, 'a'),
		"unknown mode":    append([]byte(huffMagic), 9, 1, 1, 'a'),
		"oversized block": append([]byte(huffMagic), blockRaw, 0xff, 0xff, 0x7f, 1),
	}
	for label, data := range cases {
		t.Run(label, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "packed")
			dst := filepath.Join(dir, "out")
			if err := os.WriteFile(src, data, 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			err := NewHuffman().Decompress(src, dst)
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
			if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
				t.Fatalf("expected output to be removed, stat err = %v", statErr)
			}
		})
	}
}

func TestZstd_DecompressGarbageFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "packed")
	if err := os.WriteFile(src, []byte("definitely not zstd"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := NewZstd().Decompress(src, filepath.Join(dir, "out")); err == nil {
		t.Fatalf("expected error decoding garbage")
	}
}

func TestCompress_MissingInput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out")
	if err := NewHuffman().Compress(filepath.Join(dir, "nope"), dst); err == nil {
		t.Fatalf("expected error for missing input")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("output must not be created when input is missing")
	}
}

func TestNew(t *testing.T) {
	c, err := New("")
	if err != nil || c.Name() != Default {
		t.Fatalf("New(\"\") = %v, %v", c, err)
	}
	if _, err := New("lzma"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("expected ErrUnknownCodec, got %v", err)
	}
	if got := Names(); len(got) != 2 || got[0] != "huffman" || got[1] != "zstd" {
		t.Fatalf("Names() = %v", got)
	}
}
