// Copyright (c) 2026 Passvault Team
// Passvault - local credential store
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"iter"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/toeirei/passvault/internal/apperr"
	"github.com/toeirei/passvault/internal/config"
	"github.com/toeirei/passvault/internal/i18n"
	"github.com/toeirei/passvault/internal/model"
	"github.com/toeirei/passvault/internal/passgen"
	"github.com/toeirei/passvault/internal/security"
)

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

const maskedPassword = "********"

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a vault for a new user",
		Long: `Adds the user to the master file and creates an empty credential file.
The master password is asked for twice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.user()
			if err != nil {
				return err
			}
			g, err := a.gate()
			if err != nil {
				return err
			}
			pass, err := a.prompt.NewSecret(i18n.T("prompt.master", user))
			if err != nil {
				return err
			}
			if err := g.Enroll(user, pass); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("init.created", user))
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var generate bool
	var length int
	cmd := &cobra.Command{
		Use:   "add SERVICE USERNAME",
		Short: "Store a credential for a service",
		Long: `Stores USERNAME and a password under SERVICE. The password is asked for
twice unless --generate is given. Passwords must be longer than 8 characters.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, username := args[0], args[1]
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()

			var pass string
			if generate {
				if pass, err = passgen.Generate(length); err != nil {
					return err
				}
			} else if pass, err = a.prompt.NewSecret(i18n.T("prompt.password", service)); err != nil {
				return err
			}
			if err := v.Add(service, username, pass); err != nil {
				return err
			}
			if generate {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("add.generated", service, pass))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("add.added", service))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a random password")
	cmd.Flags().IntVarP(&length, "length", "l", passgen.DefaultLength, "length of a generated password")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var copyPass bool
	cmd := &cobra.Command{
		Use:   "get SERVICE",
		Short: "Print the credential stored for a service",
		Long: `Prints the first credential stored under SERVICE as "username:password".
With --copy only the password is placed on the clipboard.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()

			payload, ok := v.Get(service)
			if !ok {
				return fmt.Errorf("%s: %w", i18n.T("get.not_found", service), apperr.ErrServiceNotFound)
			}
			if copyPass {
				entry := model.Record{Service: service, Payload: payload}.Split()
				if err := copyToClipboard(entry.Password); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("get.copied", service))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyPass, "copy", "c", false, "copy the password to the clipboard instead of printing")
	return cmd
}

func newHasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "has SERVICE",
		Short: "Report whether a service is stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()
			if v.Has(args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("has.yes", args[0]))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("has.no", args[0]))
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all stored credentials",
		Long:  `Lists every stored credential in insertion order. Passwords are masked unless --show is given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()

			if v.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("list.empty"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderEntries(v.All(), show))
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "show passwords in clear text")
	return cmd
}

func renderEntries(entries iter.Seq[model.Entry], show bool) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(i18n.T("list.service"), i18n.T("list.username"), i18n.T("list.password")).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for e := range entries {
		pass := maskedPassword
		if show {
			pass = e.Password
		}
		t.Row(e.Service, e.Username, pass)
	}
	return strings.TrimRight(t.String(), "\n")
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete SERVICE",
		Aliases: []string{"rm"},
		Short:   "Remove every credential stored for a service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.open()
			if err != nil {
				return err
			}
			defer v.Close()
			if err := v.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("delete.deleted", args[0]))
			return nil
		},
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var length int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passgen.Generate(length)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pass)
			return nil
		},
	}
	cmd.Flags().IntVarP(&length, "length", "l", passgen.DefaultLength, "password length")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.authenticate()
			if err != nil {
				return err
			}
			v, err := g.Vault()
			if err != nil {
				return err
			}
			defer v.Close()

			next, err := a.prompt.NewSecret(i18n.T("prompt.master", v.Owner()))
			if err != nil {
				return err
			}
			secret := security.FromString(next)
			defer secret.Zero()
			if err := g.ChangeMaster(v.Owner(), v.Master(), secret); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("passwd.changed"))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var system bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective configuration to passvault.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			path, err := config.WriteConfigFile(&c, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("config.written", path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&system, "system", false, "write the system-wide file instead of the user file")
	return cmd
}
