// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface of Passvault using Cobra. It
// defines the root command, its persistent flags and the main entry point.

package main

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/passvault/buildvars"
	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/auth"
	"github.com/toeirei/passvault/internal/config"
	"github.com/toeirei/passvault/internal/i18n"
	"github.com/toeirei/passvault/internal/logging"
	"github.com/toeirei/passvault/internal/scratch"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		// Cobra has already printed the error.
		os.Exit(exitCode(err))
	}
}

// Exit statuses beyond the generic 1.
const (
	exitUsage   = 2 // rejected input: weak password, unknown service, duplicate
	exitAuth    = 3 // wrong master password
	exitStorage = 4 // unreadable or corrupt files
)

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if errors.Is(err, auth.ErrAuthFailed) {
		return exitAuth
	}
	switch apperr.KindOf(err) {
	case apperr.KindWeakPassword, apperr.KindServiceNotFound, apperr.KindDuplicateService, apperr.KindInvalidInput:
		return exitUsage
	case apperr.KindFileAccess, apperr.KindCodec, apperr.KindInvalidRecordFormat:
		return exitStorage
	default:
		return 1
	}
}

// app carries the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	cfg     config.Config
	prompt  *prompter
}

// NewRootCmd creates the root command with all subcommands attached. Each
// call returns an independent tree, so tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "passvault",
		Short: "Passvault keeps service credentials in a local, password-protected vault.",
		Long: `Passvault stores one username and password per service in a plain per-user
file next to a compressed master file that gates access to it. Every command
that reads or changes the vault asks for the master password first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.SetOutput(cmd.ErrOrStderr())
			if err := logging.SetLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			i18n.Init(cfg.Language)
			if _, ok := i18n.GetAvailableLocales()[i18n.GetLang()]; !ok {
				langs := slices.Sorted(maps.Keys(i18n.GetAvailableLocales()))
				i18n.Init("en")
				return apperr.InvalidInput(fmt.Sprintf("unsupported language %q (available: %s)", cfg.Language, strings.Join(langs, ", ")))
			}
			a.cfg.Language = i18n.GetLang()
			a.prompt = newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			scratch.InstallSignalHandler()
			return nil
		},
	}
	cmd.Version = buildvars.VersionOrDefault("dev")

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is passvault.yaml in the user config dir, /etc/passvault or .)")
	cmd.PersistentFlags().StringP("user", "u", "", "vault owner")
	cmd.PersistentFlags().String("data-dir", ".", "directory holding the master and credential files")
	cmd.PersistentFlags().String("codec", "huffman", `master file codec ("huffman", "zstd")`)
	cmd.PersistentFlags().String("language", "en", `message language ("en", "de")`)
	cmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newGetCmd(a),
		newHasCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newGenerateCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newPasswdCmd(a),
		newConfigCmd(a),
	)
	return cmd
}
