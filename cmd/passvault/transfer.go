// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/toeirei/passvault/internal/backup"
	"github.com/toeirei/passvault/internal/i18n"
	"github.com/toeirei/passvault/internal/logging"
)

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup FILE",
		Short: "Export the vault to a compressed backup file",
		Long: `Writes every stored credential to FILE as zstd-compressed JSON. The backup
holds passwords in clear text once decompressed; keep it as safe as the vault.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()

			records := v.Records()
			var buf bytes.Buffer
			if err := backup.Write(cmd.Context(), &buf, v.Owner(), records); err != nil {
				return err
			}
			if err := atomic.WriteFile(args[0], &buf); err != nil {
				return fmt.Errorf("write backup %s: %w", args[0], err)
			}
			if err := os.Chmod(args[0], 0o600); err != nil {
				return fmt.Errorf("write backup %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.written", len(records), args[0]))
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace the vault with the contents of a backup file",
		Long: `Reads a backup written by "passvault backup" and replaces all stored
credentials with it. With --merge the backup records are appended instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup: %w", err)
			}
			defer f.Close()
			doc, err := backup.Read(cmd.Context(), f)
			if err != nil {
				return err
			}

			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()
			if doc.Owner != v.Owner() {
				logging.Warnf("restoring backup of %s into vault of %s", doc.Owner, v.Owner())
			}

			records := doc.Records
			if merge {
				records = slices.Concat(v.Records(), doc.Records)
			}
			if err := v.Replace(records); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.done", len(doc.Records), v.Owner()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "append the backup to the current records")
	return cmd
}
