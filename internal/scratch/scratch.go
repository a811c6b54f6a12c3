// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package scratch allocates transient files that bridge serialization and
// compression steps. Files are grouped in an Arena owned by one operation;
// Release removes all of them. Live arenas are tracked in a process-wide
// registry so an interrupt can still clean them up.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/toeirei/passvault/internal/logging"
)

// Pattern is the os.CreateTemp pattern used for scratch files.
const Pattern = "temp_user_credentials-*.txt"

var (
	// Global registry of live arenas for interrupt-time cleanup
	activeArenas = make(map[*Arena]struct{})
	arenasMutex  sync.Mutex

	signalHandlerInstalled bool
	signalHandlerMutex     sync.Mutex
)

// Arena owns the scratch files created for a single operation.
type Arena struct {
	dir   string
	mu    sync.Mutex
	paths []string
}

// New returns an arena that creates its files in dir and registers it for
// interrupt cleanup. Callers must defer Release.
func New(dir string) *Arena {
	a := &Arena{dir: dir}
	arenasMutex.Lock()
	activeArenas[a] = struct{}{}
	arenasMutex.Unlock()
	return a
}

// Path reserves a new uniquely named, empty file in the arena directory and
// returns its path.
func (a *Arena) Path() (string, error) {
	f, err := a.Create()
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return name, nil
}

// Create opens a new uniquely named scratch file for writing. The caller
// closes the file; the arena removes it.
func (a *Arena) Create() (*os.File, error) {
	if err := os.MkdirAll(a.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	f, err := os.CreateTemp(a.dir, Pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	a.track(f.Name())
	return f, nil
}

func (a *Arena) track(path string) {
	a.mu.Lock()
	a.paths = append(a.paths, filepath.Clean(path))
	a.mu.Unlock()
}

// Forget stops tracking path, typically because it was renamed into place.
func (a *Arena) Forget(path string) {
	path = filepath.Clean(path)
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range a.paths {
		if p == path {
			a.paths = append(a.paths[:i], a.paths[i+1:]...)
			return
		}
	}
}

// Len returns the number of files the arena still owns.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.paths)
}

// Release removes every tracked file and unregisters the arena. Files that
// are already gone are ignored. It is safe to call more than once.
func (a *Arena) Release() error {
	arenasMutex.Lock()
	delete(activeArenas, a)
	arenasMutex.Unlock()
	return a.removeAll()
}

func (a *Arena) removeAll() error {
	a.mu.Lock()
	paths := a.paths
	a.paths = nil
	a.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ReleaseAll removes the files of every live arena.
func ReleaseAll() error {
	arenasMutex.Lock()
	arenas := make([]*Arena, 0, len(activeArenas))
	for a := range activeArenas {
		arenas = append(arenas, a)
	}
	activeArenas = make(map[*Arena]struct{})
	arenasMutex.Unlock()

	var errs []error
	for _, a := range arenas {
		if err := a.removeAll(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Active returns the number of arenas that have not been released.
func Active() int {
	arenasMutex.Lock()
	defer arenasMutex.Unlock()
	return len(activeArenas)
}

// InstallSignalHandler removes all live scratch files on SIGINT or SIGTERM
// and exits. Subsequent calls are ignored.
func InstallSignalHandler() {
	signalHandlerMutex.Lock()
	defer signalHandlerMutex.Unlock()

	if signalHandlerInstalled {
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logging.Warnf("%v received, removing %d scratch arenas", sig, Active())
		if err := ReleaseAll(); err != nil {
			logging.Errorf("scratch cleanup on %v: %v", sig, err)
		}
		os.Exit(130)
	}()

	signalHandlerInstalled = true
}
