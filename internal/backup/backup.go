// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup exports a vault to a zstd-compressed JSON document and reads
// it back.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/passvault/internal/model"
)

// Version is the current document version.
const Version = 1

// ErrUnsupportedVersion is returned for documents written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported backup version")

// Document is the backup payload.
type Document struct {
	Version   int            `json:"version"`
	Owner     string         `json:"owner"`
	CreatedAt time.Time      `json:"created_at"`
	Records   []model.Record `json:"records"`
}

// Write writes compressed JSON backup data for owner's records to w.
func Write(ctx context.Context, w io.Writer, owner string, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []model.Record{}
	}
	doc := Document{
		Version:   Version,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
		Records:   records,
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	return nil
}

// Read decodes a backup written by Write and validates every record.
func Read(ctx context.Context, r io.Reader) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	var doc Document
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version < 1 || doc.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	for i, rec := range doc.Records {
		if err := rec.Valid(); err != nil {
			return nil, fmt.Errorf("backup record %d: %w", i, err)
		}
	}
	return &doc, nil
}
