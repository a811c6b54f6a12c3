// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package codec

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Zstd is a zstd stream codec.
type Zstd struct {
	level zstd.EncoderLevel
}

// NewZstd returns a zstd codec using the default encoder level.
func NewZstd() *Zstd {
	return &Zstd{level: zstd.SpeedDefault}
}

// Name implements Codec.
func (z *Zstd) Name() string { return "zstd" }

// Compress implements Codec.
func (z *Zstd) Compress(src, dst string) error {
	return transform(src, dst, func(w io.Writer, r io.Reader) error {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(z.level))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		if _, err := io.Copy(zw, r); err != nil {
			_ = zw.Close()
			return fmt.Errorf("zstd compress: %w", err)
		}
		return zw.Close()
	})
}

// Decompress implements Codec.
func (z *Zstd) Decompress(src, dst string) error {
	return transform(src, dst, func(w io.Writer, r io.Reader) error {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("create zstd reader: %w", err)
		}
		defer zr.Close()
		if _, err := io.Copy(w, zr); err != nil {
			return fmt.Errorf("zstd decompress: %w", err)
		}
		return nil
	})
}
