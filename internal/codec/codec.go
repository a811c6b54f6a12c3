// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package codec adapts lossless byte compressors to the file-to-file contract
// used by the master credential file. Implementations must be symmetric:
// decompressing the output of Compress yields the original bytes exactly.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Codec compresses and decompresses whole files.
type Codec interface {
	// Name returns the registry name of the codec.
	Name() string
	// Compress reads src and writes the compressed form to dst.
	Compress(src, dst string) error
	// Decompress reads src and writes the original bytes to dst.
	Decompress(src, dst string) error
}

// Default is the codec used when configuration does not name one.
const Default = "huffman"

var registry = map[string]func() Codec{
	"huffman": func() Codec { return NewHuffman() },
	"zstd":    func() Codec { return NewZstd() },
}

// ErrUnknownCodec is returned by New for an unregistered name.
var ErrUnknownCodec = errors.New("unknown codec")

// New returns the codec registered under name. An empty name selects Default.
func New(name string) (Codec, error) {
	if name == "" {
		name = Default
	}
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownCodec, name, Names())
	}
	return ctor(), nil
}

// Names lists the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// transform opens src, creates dst with owner-only permissions and runs fn
// between them. dst is removed when fn or any close fails so a failed run
// never leaves a truncated output behind.
func transform(src, dst string, fn func(w io.Writer, r io.Reader) error) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	return fn(out, in)
}
