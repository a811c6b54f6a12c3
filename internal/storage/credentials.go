// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/logging"
	"github.com/toeirei/passvault/internal/model"
)

// CredentialSuffix is appended to the owner name to form the credential
// file name.
const CredentialSuffix = "_passwords.dat"

// maxLineSize bounds a single credential file line.
const maxLineSize = 1 << 20

// CredentialFile is the plain, line-oriented file holding one owner's
// records: one "service payload" line per record, in order.
type CredentialFile struct {
	dir  string
	path string
}

// NewCredentialFile returns the credential file of owner inside dir.
func NewCredentialFile(dir, owner string) (*CredentialFile, error) {
	if err := model.ValidateOwner(owner); err != nil {
		return nil, err
	}
	return &CredentialFile{dir: dir, path: filepath.Join(dir, owner+CredentialSuffix)}, nil
}

// Path returns the file location.
func (f *CredentialFile) Path() string { return f.path }

// Exists reports whether the file is present.
func (f *CredentialFile) Exists() (bool, error) {
	return exists(f.path)
}

// Load reads every record in file order. Blank lines are skipped; any other
// line that is not exactly "service user:password" fails the load.
func (f *CredentialFile) Load() ([]model.Record, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, apperr.FileAccess(apperr.OpRead, f.path, err)
	}
	defer func() { _ = fh.Close() }()

	var records []model.Record
	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, apperr.InvalidRecordFormat(f.path, lineNo, fmt.Sprintf("expected 2 fields, got %d", len(fields)))
		}
		rec := model.Record{Service: fields[0], Payload: fields[1]}
		if !strings.Contains(rec.Payload, model.PayloadSeparator) {
			return nil, apperr.InvalidRecordFormat(f.path, lineNo, "payload has no "+model.PayloadSeparator+" separator")
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, apperr.InvalidRecordFormat(f.path, lineNo+1, "line too long")
		}
		return nil, apperr.FileAccess(apperr.OpRead, f.path, err)
	}
	logging.Debugf("loaded %d records from %s", len(records), f.path)
	return records, nil
}

// Save replaces the file with records. The content is written to a
// temporary file in the same directory and renamed over the target, so a
// failed save leaves the previous file intact.
func (f *CredentialFile) Save(records []model.Record) error {
	var buf bytes.Buffer
	for i, r := range records {
		if err := r.Valid(); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, r.Service, err)
		}
		buf.WriteString(r.Service)
		buf.WriteByte(' ')
		buf.WriteString(r.Payload)
		buf.WriteByte('\n')
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return apperr.FileAccess(apperr.OpWrite, f.dir, err)
	}
	if err := atomic.WriteFile(f.path, &buf); err != nil {
		return apperr.FileAccess(apperr.OpWrite, f.path, err)
	}
	logging.Debugf("saved %d records to %s", len(records), f.path)
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, apperr.FileAccess(apperr.OpRead, path, err)
	}
}
