// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package passgen generates random passwords from a fixed alphabet.
package passgen

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/toeirei/passvault/internal/apperr"
)

// Alphabet is the character set sampled by Generate. It contains neither
// whitespace nor the payload separator, so every generated password can be
// stored as-is.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"

// DefaultLength is used by the CLI when no length is given.
const DefaultLength = 16

// Generate returns a password of length characters drawn uniformly from
// Alphabet.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", apperr.InvalidInput("password length must be greater than 0")
	}
	max := big.NewInt(int64(len(Alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
