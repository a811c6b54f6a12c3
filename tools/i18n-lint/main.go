// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-lint checks that every i18n.T key used in the Go sources exists in
// each locale file, and reports locale keys no source uses.
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
)

var keyCall = regexp.MustCompile(`i18n\.T\("([^"]+)"`)

func main() {
	ok, err := lint(os.Stdout, ".", localesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-lint: %v\n", err)
		os.Exit(2)
	}
	if !ok {
		os.Exit(1)
	}
}

// report collects the findings of one run.
type report struct {
	undefined map[string][]string // locale file -> keys used but missing there
	orphaned  []string            // primary keys never used
}

// lint writes a report for the sources under root and returns false when a
// used key is missing from any locale. Orphaned keys are only reported.
func lint(w io.Writer, root, locales string) (bool, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return false, fmt.Errorf("scan sources: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no locale files in %s", locales)
	}

	r := report{undefined: make(map[string][]string)}
	for _, file := range files {
		keys, err := loadKeys(file)
		if err != nil {
			return false, fmt.Errorf("load %s: %w", file, err)
		}
		for key := range used {
			if _, ok := keys[key]; !ok {
				r.undefined[filepath.Base(file)] = append(r.undefined[filepath.Base(file)], key)
			}
		}
		if filepath.Base(file) == primaryLocale {
			for key := range keys {
				if _, ok := used[key]; !ok {
					r.orphaned = append(r.orphaned, key)
				}
			}
		}
	}

	fmt.Fprintf(w, "%d keys used in %d locale files\n", len(used), len(files))
	names := make([]string, 0, len(r.undefined))
	for name := range r.undefined {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		missing := r.undefined[name]
		sort.Strings(missing)
		for _, key := range missing {
			fmt.Fprintf(w, "missing %s: %s (used in %s)\n", name, key, strings.Join(used[key], ", "))
		}
	}
	sort.Strings(r.orphaned)
	for _, key := range r.orphaned {
		fmt.Fprintf(w, "orphaned %s: %s\n", primaryLocale, key)
	}
	return len(r.undefined) == 0, nil
}

// findUsedKeys maps each key passed to i18n.T in non-test Go files under
// root to the files using it. Directories starting with "." or "_" and
// testdata are skipped, as the go tool does.
func findUsedKeys(root string) (map[string][]string, error) {
	keys := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range keyCall.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = append(keys[m[1]], path)
		}
		return nil
	})
	return keys, err
}

// loadKeys reads a locale file and returns its message IDs, flattening
// nested maps with dots the way go-i18n does.
func loadKeys(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flatten("", data, keys)
	return keys, nil
}

func flatten(prefix string, node any, keys map[string]struct{}) {
	if m, ok := node.(map[string]any); ok {
		for k, v := range m {
			if prefix != "" {
				k = prefix + "." + k
			}
			flatten(k, v, keys)
		}
		return
	}
	if prefix != "" {
		keys[prefix] = struct{}{}
	}
}
