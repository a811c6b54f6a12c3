// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package storage

import (
	"bufio"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/codec"
	"github.com/toeirei/passvault/internal/logging"
	"github.com/toeirei/passvault/internal/model"
	"github.com/toeirei/passvault/internal/scratch"
	"golang.org/x/crypto/bcrypt"
)

// MasterFileName is the compressed master credential file shared by all
// owners in a data directory.
const MasterFileName = "user_credentials.csv"

// bcrypt ignores input beyond this length, so longer passwords are refused
// rather than silently truncated.
const maxHashedPasswordLen = 72

// MasterFile stores master entries as "username,password" lines compressed
// with a Codec. Every read and write goes through uniquely named scratch
// files that are removed before the call returns.
type MasterFile struct {
	dir   string
	path  string
	codec codec.Codec
	hash  bool
	cost  int
}

// MasterOption configures a MasterFile.
type MasterOption func(*MasterFile)

// WithHashing controls whether new entries store a bcrypt hash (true) or
// the plaintext password (false). Existing entries of either form are always
// accepted by Match.
func WithHashing(enabled bool) MasterOption {
	return func(m *MasterFile) { m.hash = enabled }
}

// WithBcryptCost sets the bcrypt work factor for new entries.
func WithBcryptCost(cost int) MasterOption {
	return func(m *MasterFile) { m.cost = cost }
}

// NewMasterFile returns the master file in dir using c.
func NewMasterFile(dir string, c codec.Codec, opts ...MasterOption) *MasterFile {
	m := &MasterFile{
		dir:   dir,
		path:  filepath.Join(dir, MasterFileName),
		codec: c,
		hash:  true,
		cost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the file location.
func (m *MasterFile) Path() string { return m.path }

// Exists reports whether the file is present.
func (m *MasterFile) Exists() (bool, error) {
	return exists(m.path)
}

// Put stores entry, replacing any entry with the same username. The file is
// created when missing.
func (m *MasterFile) Put(entry model.MasterEntry) error {
	if err := entry.Valid(); err != nil {
		return err
	}
	stored, err := m.seal(entry)
	if err != nil {
		return err
	}

	var entries []model.MasterEntry
	ok, err := m.Exists()
	if err != nil {
		return err
	}
	if ok {
		if err := m.scan(func(_ int, e model.MasterEntry) bool {
			if e.Username != entry.Username {
				entries = append(entries, e)
			}
			return true
		}); err != nil {
			return err
		}
	}
	entries = append(entries, stored)
	return m.write(entries)
}

// Usernames lists the owners present in the file, in file order.
func (m *MasterFile) Usernames() ([]string, error) {
	var names []string
	err := m.scan(func(_ int, e model.MasterEntry) bool {
		names = append(names, e.Username)
		return true
	})
	return names, err
}

// Match reports whether the file holds an entry for username whose password
// equals password. The username comparison is exact.
func (m *MasterFile) Match(username, password string) (bool, error) {
	matched := false
	err := m.scan(func(_ int, e model.MasterEntry) bool {
		if e.Username != username {
			return true
		}
		matched = verify(e.Password, password)
		return !matched
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (m *MasterFile) seal(entry model.MasterEntry) (model.MasterEntry, error) {
	if !m.hash {
		// A bcrypt hash never holds the separator; a plaintext password must not either.
		if strings.Contains(entry.Password, model.MasterSeparator) {
			return model.MasterEntry{}, apperr.InvalidInput("plaintext master password must not contain " + model.MasterSeparator)
		}
		return entry, nil
	}
	if len(entry.Password) > maxHashedPasswordLen {
		return model.MasterEntry{}, apperr.InvalidInput(fmt.Sprintf("master password must be at most %d bytes", maxHashedPasswordLen))
	}
	h, err := bcrypt.GenerateFromPassword([]byte(entry.Password), m.cost)
	if err != nil {
		return model.MasterEntry{}, fmt.Errorf("hash master password: %w", err)
	}
	return model.MasterEntry{Username: entry.Username, Password: string(h)}, nil
}

func isBcryptHash(stored string) bool {
	if len(stored) != 60 {
		return false
	}
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

func verify(stored, password string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// write serializes entries to a scratch file, compresses it into a second
// scratch file and renames that one over the master file.
func (m *MasterFile) write(entries []model.MasterEntry) (err error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return apperr.FileAccess(apperr.OpWrite, m.dir, err)
	}
	arena := scratch.New(m.dir)
	defer func() {
		if rerr := arena.Release(); rerr != nil && err == nil {
			err = apperr.FileAccess(apperr.OpWrite, m.dir, rerr)
		}
	}()

	plain, err := arena.Create()
	if err != nil {
		return apperr.FileAccess(apperr.OpWrite, m.dir, err)
	}
	w := bufio.NewWriter(plain)
	for _, e := range entries {
		_, _ = w.WriteString(e.Username)
		_, _ = w.WriteString(model.MasterSeparator)
		_, _ = w.WriteString(e.Password)
		_ = w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		_ = plain.Close()
		return apperr.FileAccess(apperr.OpWrite, plain.Name(), err)
	}
	if err := plain.Close(); err != nil {
		return apperr.FileAccess(apperr.OpWrite, plain.Name(), err)
	}

	packed, err := arena.Path()
	if err != nil {
		return apperr.FileAccess(apperr.OpWrite, m.dir, err)
	}
	if err := m.codec.Compress(plain.Name(), packed); err != nil {
		return apperr.Codec("compress", m.path, err)
	}
	if err := atomic.ReplaceFile(packed, m.path); err != nil {
		return apperr.FileAccess(apperr.OpWrite, m.path, err)
	}
	arena.Forget(packed)
	logging.Debugf("wrote %d master entries to %s with %s codec", len(entries), m.path, m.codec.Name())
	return nil
}

// scan decompresses the master file into a scratch file and calls visit for
// each entry until visit returns false.
func (m *MasterFile) scan(visit func(line int, e model.MasterEntry) bool) (err error) {
	if _, err := os.Stat(m.path); err != nil {
		return apperr.FileAccess(apperr.OpRead, m.path, err)
	}
	arena := scratch.New(m.dir)
	defer func() {
		if rerr := arena.Release(); rerr != nil && err == nil {
			err = apperr.FileAccess(apperr.OpWrite, m.dir, rerr)
		}
	}()

	plain, err := arena.Path()
	if err != nil {
		return apperr.FileAccess(apperr.OpWrite, m.dir, err)
	}
	if err := m.codec.Decompress(m.path, plain); err != nil {
		return apperr.Codec("decompress", m.path, err)
	}

	fh, err := os.Open(plain)
	if err != nil {
		return apperr.FileAccess(apperr.OpRead, plain, err)
	}
	defer func() { _ = fh.Close() }()

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		user, pass, ok := strings.Cut(line, model.MasterSeparator)
		if !ok || strings.Contains(pass, model.MasterSeparator) {
			return apperr.InvalidRecordFormat(m.path, lineNo, "expected username"+model.MasterSeparator+"password")
		}
		if !visit(lineNo, model.MasterEntry{Username: user, Password: pass}) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return apperr.InvalidRecordFormat(m.path, lineNo+1, "line too long")
		}
		return apperr.FileAccess(apperr.OpRead, m.path, err)
	}
	return nil
}
