// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the credential records kept by a vault and the
// master entries that gate access to it, together with the field rules that
// keep both representable in their line-oriented file formats.
package model

import (
	"strings"
	"unicode"

	"github.com/toeirei/passvault/internal/apperr"
)

// PayloadSeparator splits a record payload into username and password.
const PayloadSeparator = ":"

// MasterSeparator splits a master file line into username and password.
const MasterSeparator = ","

// Record is one stored credential. Payload packs "username:password".
type Record struct {
	Service string `json:"service"`
	Payload string `json:"payload"`
}

// Entry is the display form of a Record.
type Entry struct {
	Service  string
	Username string
	Password string
}

// MasterEntry is one line of the master credential file.
type MasterEntry struct {
	Username string
	Password string
}

// NewRecord validates the fields and packs them into a Record.
func NewRecord(service, username, password string) (Record, error) {
	if err := ValidateService(service); err != nil {
		return Record{}, err
	}
	if username == "" {
		return Record{}, apperr.InvalidInput("username is empty")
	}
	if strings.Contains(username, PayloadSeparator) {
		return Record{}, apperr.InvalidInput("username must not contain " + PayloadSeparator)
	}
	if hasSpace(username) || hasSpace(password) {
		return Record{}, apperr.InvalidInput("username and password must not contain whitespace")
	}
	return Record{Service: service, Payload: username + PayloadSeparator + password}, nil
}

// Split returns the display triple, splitting the payload on its first
// separator. A payload without separator yields an empty password.
func (r Record) Split() Entry {
	user, pass, _ := strings.Cut(r.Payload, PayloadSeparator)
	return Entry{Service: r.Service, Username: user, Password: pass}
}

// Valid reports whether the record can be written to and read back from a
// credential file unchanged.
func (r Record) Valid() error {
	if err := ValidateService(r.Service); err != nil {
		return err
	}
	if !strings.Contains(r.Payload, PayloadSeparator) {
		return apperr.InvalidInput("payload has no " + PayloadSeparator + " separator")
	}
	if hasSpace(r.Payload) {
		return apperr.InvalidInput("payload must not contain whitespace")
	}
	return nil
}

// ValidateService checks a service name.
func ValidateService(service string) error {
	if service == "" {
		return apperr.InvalidInput("service name is empty")
	}
	if hasSpace(service) {
		return apperr.InvalidInput("service name must not contain whitespace")
	}
	return nil
}

// ValidateOwner checks a vault owner name. The name becomes part of a file
// name and of a master file line.
func ValidateOwner(username string) error {
	switch {
	case username == "":
		return apperr.InvalidInput("username is empty")
	case username == "." || username == "..":
		return apperr.InvalidInput("username is reserved")
	case strings.ContainsAny(username, `/\`+MasterSeparator):
		return apperr.InvalidInput(`username must not contain "/", "\" or ","`)
	case hasSpace(username):
		return apperr.InvalidInput("username must not contain whitespace")
	}
	return nil
}

// Valid checks that the entry fits on one master file line.
func (m MasterEntry) Valid() error {
	if err := ValidateOwner(m.Username); err != nil {
		return err
	}
	if m.Password == "" {
		return apperr.InvalidInput("master password is empty")
	}
	if strings.ContainsAny(m.Password, "\r\n") {
		return apperr.InvalidInput("master password must not contain line breaks")
	}
	return nil
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
