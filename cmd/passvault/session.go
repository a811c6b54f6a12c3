// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/toeirei/passvault/internal/auth"
	"github.com/toeirei/passvault/internal/codec"
	"github.com/toeirei/passvault/internal/i18n"
	"github.com/toeirei/passvault/internal/storage"
	"github.com/toeirei/passvault/internal/vault"
	"golang.org/x/term"
)

var errNoUser = errors.New("no user given (use --user or PASSVAULT_USER)")

// prompter reads secrets from a terminal without echo, or line by line from
// any other input.
type prompter struct {
	in    io.Reader
	out   io.Writer
	lines *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out}
}

// Secret prints prompt and reads one secret.
func (p *prompter) Secret(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewSecret reads a secret twice and fails if the entries differ.
func (p *prompter) NewSecret(prompt string) (string, error) {
	first, err := p.Secret(prompt)
	if err != nil {
		return "", err
	}
	second, err := p.Secret(i18n.T("prompt.repeat"))
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New(i18n.T("prompt.mismatch"))
	}
	return first, nil
}

func (a *app) user() (string, error) {
	if a.cfg.User == "" {
		return "", errNoUser
	}
	return a.cfg.User, nil
}

// gate builds an authentication gate from the loaded configuration.
func (a *app) gate() (*auth.Gate, error) {
	c, err := codec.New(a.cfg.Codec)
	if err != nil {
		return nil, err
	}
	dupes, err := vault.ParseDuplicatePolicy(a.cfg.Vault.Duplicates)
	if err != nil {
		return nil, err
	}
	master := storage.NewMasterFile(a.cfg.DataDir, c, storage.WithHashing(a.cfg.Master.Hash))
	return auth.NewGate(a.cfg.DataDir, master, vault.WithDuplicatePolicy(dupes)), nil
}

// authenticate asks for the master password and returns the gate once it
// has opened the vault.
func (a *app) authenticate() (*auth.Gate, error) {
	user, err := a.user()
	if err != nil {
		return nil, err
	}
	g, err := a.gate()
	if err != nil {
		return nil, err
	}
	pass, err := a.prompt.Secret(i18n.T("prompt.master", user))
	if err != nil {
		return nil, err
	}
	if err := g.Authenticate(user, pass); err != nil {
		if errors.Is(err, auth.ErrAuthFailed) {
			return nil, fmt.Errorf("%s: %w", i18n.T("auth.failed"), err)
		}
		return nil, err
	}
	return g, nil
}

// open returns the authenticated vault. Callers must Close it.
func (a *app) open() (*vault.Vault, error) {
	g, err := a.authenticate()
	if err != nil {
		return nil, err
	}
	return g.Vault()
}
