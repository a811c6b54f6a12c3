// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package auth decides whether an owner's vault may be opened. A Gate starts
// Unauthenticated and moves to Authenticated once the master file confirms
// the supplied username and password; there is no way back.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/logging"
	"github.com/toeirei/passvault/internal/model"
	"github.com/toeirei/passvault/internal/security"
	"github.com/toeirei/passvault/internal/storage"
	"github.com/toeirei/passvault/internal/vault"
)

// State is the gate position.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

var (
	// ErrAuthFailed is returned when no master entry matches.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotAuthenticated is returned by Vault before a successful Authenticate.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAlreadyAuthenticated is returned by a second Authenticate call.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrUserExists is returned by Enroll for a username already enrolled.
	ErrUserExists = errors.New("user already enrolled")
)

// Gate guards the credential files of a data directory.
type Gate struct {
	mu     sync.Mutex
	dir    string
	master *storage.MasterFile
	opts   []vault.Option

	state State
	vault *vault.Vault
}

// NewGate returns an Unauthenticated gate for the credential files in dir.
// opts are applied to the vault opened on success.
func NewGate(dir string, master *storage.MasterFile, opts ...vault.Option) *Gate {
	return &Gate{dir: dir, master: master, opts: opts}
}

// State returns the current gate position.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Authenticate checks username and password against the master file and,
// on a match, opens the owner's vault. A missing credential file opens an
// empty vault. Codec and file failures are returned as-is and leave the gate
// Unauthenticated.
func (g *Gate) Authenticate(username, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Authenticated {
		return ErrAlreadyAuthenticated
	}
	if err := model.ValidateOwner(username); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	ok, err := g.master.Match(username, password)
	if err != nil {
		return fmt.Errorf("authenticate %s: %w", username, err)
	}
	if !ok {
		logging.With("user", username).Warn("authentication failed")
		return ErrAuthFailed
	}

	file, err := storage.NewCredentialFile(g.dir, username)
	if err != nil {
		return err
	}
	records, err := file.Load()
	switch {
	case errors.Is(err, apperr.ErrFileMissing):
		logging.Infof("no credential file for %s yet, starting empty", username)
	case err != nil:
		return fmt.Errorf("open vault for %s: %w", username, err)
	}

	opts := append(slices.Clone(g.opts), vault.WithMaster(security.FromString(password)))
	v := vault.New(username, file, opts...)
	if err := v.Load(records); err != nil {
		return fmt.Errorf("open vault for %s: %w", username, err)
	}

	g.vault = v
	g.state = Authenticated
	logging.Debugf("user %s authenticated, %d records loaded", username, len(records))
	return nil
}

// Vault returns the opened vault.
func (g *Gate) Vault() (*vault.Vault, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authenticated {
		return nil, ErrNotAuthenticated
	}
	return g.vault, nil
}

// Enroll adds a new master entry and creates an empty credential file for
// it. An existing credential file is kept.
func (g *Gate) Enroll(username, password string) error {
	entry := model.MasterEntry{Username: username, Password: password}
	if err := entry.Valid(); err != nil {
		return err
	}

	present, err := g.master.Exists()
	if err != nil {
		return err
	}
	if present {
		names, err := g.master.Usernames()
		if err != nil {
			return fmt.Errorf("enroll %s: %w", username, err)
		}
		if slices.Contains(names, username) {
			return fmt.Errorf("enroll %s: %w", username, ErrUserExists)
		}
	}

	if err := g.master.Put(entry); err != nil {
		return fmt.Errorf("enroll %s: %w", username, err)
	}

	file, err := storage.NewCredentialFile(g.dir, username)
	if err != nil {
		return err
	}
	exists, err := file.Exists()
	if err != nil {
		return err
	}
	if !exists {
		if err := file.Save(nil); err != nil {
			return fmt.Errorf("enroll %s: %w", username, err)
		}
	}
	logging.Infof("enrolled user %s", username)
	return nil
}

// ChangeMaster replaces the master password of username after verifying the
// current one. A next password equal to current is rejected.
func (g *Gate) ChangeMaster(username string, current, next security.Secret) error {
	if current.Empty() || next.Empty() {
		return apperr.InvalidInput("master password is empty")
	}
	if next.Equal(current) {
		return apperr.InvalidInput("new master password equals the current one")
	}

	ok, err := g.master.Match(username, current.Reveal())
	if err != nil {
		return fmt.Errorf("change master password for %s: %w", username, err)
	}
	if !ok {
		return ErrAuthFailed
	}
	err = next.Use(func(b []byte) error {
		return g.master.Put(model.MasterEntry{Username: username, Password: string(b)})
	})
	if err != nil {
		return fmt.Errorf("change master password for %s: %w", username, err)
	}
	logging.With("user", username).Info("master password changed")
	return nil
}
