// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package storage persists vault contents and master credentials.
//
// Two files live in a data directory:
//
//	<owner>_passwords.dat   plain text, one "service user:password" line per record
//	user_credentials.csv    codec output of "username,password" lines
//
// Both are replaced with a rename, never rewritten in place. The master file
// is round-tripped through scratch files that are removed on every exit path.
package storage
