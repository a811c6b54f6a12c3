// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package vault keeps one owner's credential records in memory as an
// ordered sequence and writes every mutation through to a Persister before
// returning.
package vault

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/logging"
	"github.com/toeirei/passvault/internal/model"
	"github.com/toeirei/passvault/internal/security"
)

// MinPasswordLength is the policy floor: passwords must be strictly longer.
const MinPasswordLength = 8

// Persister durably stores the full ordered record list.
type Persister interface {
	Save(records []model.Record) error
}

// DuplicatePolicy decides what Add does with a service name that is already
// stored.
type DuplicatePolicy int

const (
	// DuplicateAppend stores a second record; lookups return the first.
	DuplicateAppend DuplicatePolicy = iota
	// DuplicateReject fails the add.
	DuplicateReject
	// DuplicateReplace overwrites the first record and drops later ones.
	DuplicateReplace
)

// String returns the configuration name of the policy.
func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateAppend:
		return "append"
	case DuplicateReject:
		return "reject"
	case DuplicateReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy parses a configuration value. An empty string selects
// DuplicateAppend.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return DuplicateAppend, nil
	case "reject":
		return DuplicateReject, nil
	case "replace":
		return DuplicateReplace, nil
	}
	return DuplicateAppend, apperr.InvalidInput(fmt.Sprintf("unknown duplicate policy %q (append, reject, replace)", s))
}

// Vault is an owner's credential store. It is safe for concurrent use within
// one process.
type Vault struct {
	mu      sync.Mutex
	owner   string
	master  security.Secret
	records []model.Record
	store   Persister
	dupes   DuplicatePolicy
}

// Option configures a Vault.
type Option func(*Vault)

// WithDuplicatePolicy sets how Add treats an existing service name.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(v *Vault) { v.dupes = p }
}

// WithMaster attaches the owner's master password for the session.
func WithMaster(s security.Secret) Option {
	return func(v *Vault) { v.master = s }
}

// New returns an empty vault for owner. A nil store keeps the vault in
// memory only.
func New(owner string, store Persister, opts ...Option) *Vault {
	v := &Vault{owner: owner, store: store}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Owner returns the owner name.
func (v *Vault) Owner() string { return v.owner }

// Master returns the session master password.
func (v *Vault) Master() security.Secret { return v.master }

// Load populates the vault from previously persisted records without writing
// them back.
func (v *Vault) Load(records []model.Record) error {
	for i, r := range records {
		if err := r.Valid(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	v.mu.Lock()
	v.records = slices.Clone(records)
	v.mu.Unlock()
	return nil
}

// Add stores a new credential and persists the vault. A password of
// MinPasswordLength characters or fewer fails with a weak password error.
func (v *Vault) Add(service, username, password string) error {
	if !strongEnough(password) {
		return apperr.WeakPassword(MinPasswordLength)
	}
	rec, err := model.NewRecord(service, username, password)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := slices.Clone(v.records)
	idx := v.indexLocked(service)
	switch {
	case idx < 0 || v.dupes == DuplicateAppend:
		next = append(next, rec)
	case v.dupes == DuplicateReject:
		return apperr.DuplicateService(service)
	case v.dupes == DuplicateReplace:
		next[idx] = rec
		next = slices.Concat(next[:idx+1], slices.DeleteFunc(next[idx+1:], func(r model.Record) bool {
			return r.Service == service
		}))
	}

	if err := v.commitLocked(next); err != nil {
		return fmt.Errorf("add %s: %w", service, err)
	}
	logging.Debugf("added credential for service %s (%d records)", service, len(next))
	return nil
}

// Delete removes every record stored under service and persists the vault.
func (v *Vault) Delete(service string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(v.records), func(r model.Record) bool {
		return r.Service == service
	})
	if len(next) == len(v.records) {
		return apperr.ServiceNotFound(service)
	}
	if err := v.commitLocked(next); err != nil {
		return fmt.Errorf("delete %s: %w", service, err)
	}
	logging.Debugf("deleted %d records for service %s", len(v.records)-len(next), service)
	return nil
}

// Replace swaps the full record list and persists it. Every record must pass
// the password rule Add enforces, and repeated services are handled by the
// duplicate policy: reject fails, replace keeps the first record of each
// service, append stores the list as given.
func (v *Vault) Replace(records []model.Record) error {
	seen := make(map[string]struct{}, len(records))
	next := make([]model.Record, 0, len(records))
	for i, r := range records {
		if err := r.Valid(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if !strongEnough(r.Split().Password) {
			return fmt.Errorf("record %d (%s): %w", i, r.Service, apperr.WeakPassword(MinPasswordLength))
		}
		if _, dup := seen[r.Service]; dup {
			switch v.dupes {
			case DuplicateReject:
				return fmt.Errorf("record %d: %w", i, apperr.DuplicateService(r.Service))
			case DuplicateReplace:
				continue
			}
		}
		seen[r.Service] = struct{}{}
		next = append(next, r)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.commitLocked(next); err != nil {
		return err
	}
	if dropped := len(records) - len(next); dropped > 0 {
		logging.Debugf("replace dropped %d duplicate records", dropped)
	}
	return nil
}

// Get returns the payload ("username:password") of the first record stored
// under service.
func (v *Vault) Get(service string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(service); i >= 0 {
		return v.records[i].Payload, true
	}
	return "", false
}

// Has reports whether any record is stored under service.
func (v *Vault) Has(service string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.indexLocked(service) >= 0
}

// Len returns the number of records.
func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.records)
}

// Records returns a copy of the records in order.
func (v *Vault) Records() []model.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.records)
}

// All yields the display triple of every record. Each iteration walks a
// snapshot taken when it starts, so the sequence can be ranged over again.
func (v *Vault) All() iter.Seq[model.Entry] {
	return func(yield func(model.Entry) bool) {
		for _, r := range v.Records() {
			if !yield(r.Split()) {
				return
			}
		}
	}
}

// Close wipes the session master password.
func (v *Vault) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.master.Zero()
	v.master = nil
}

// strongEnough counts characters, not bytes.
func strongEnough(password string) bool {
	return utf8.RuneCountInString(password) > MinPasswordLength
}

func (v *Vault) indexLocked(service string) int {
	return slices.IndexFunc(v.records, func(r model.Record) bool {
		return r.Service == service
	})
}

// commitLocked persists next and only then makes it the vault state.
func (v *Vault) commitLocked(next []model.Record) error {
	if v.store != nil {
		if err := v.store.Save(next); err != nil {
			return err
		}
	}
	v.records = next
	return nil
}
