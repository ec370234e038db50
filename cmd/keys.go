// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/models"
	"sqlagent/cli/internal/terminal"
)

var clearDB bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage provider API keys stored in the OS keychain",
	Long: `Provider API keys are looked up in the environment first, then in the .env file,
then in the OS keychain. The keys commands manage the keychain entries.`,
}

var keysSetCmd = &cobra.Command{
	Use:       "set <provider>",
	Short:     "Store an API key for a provider",
	Args:      cobra.ExactArgs(1),
	ValidArgs: models.ProviderNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := models.ParseProvider(args[0])
		if err != nil {
			return err
		}
		km, err := keychain.GetManager()
		if err != nil {
			return fmt.Errorf("secure storage is not available on this system: %w", err)
		}

		key, err := terminal.ReadSecret(fmt.Sprintf("Enter %s API key: ", p))
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("API key is required")
		}
		if err := km.SaveAPIKey(p, key); err != nil {
			return err
		}
		pterm.Success.Printf("Saved %s API key in the OS keychain\n", p)
		return nil
	},
}

var keysClearCmd = &cobra.Command{
	Use:       "clear [provider]",
	Short:     "Remove stored API keys (all providers when none is given)",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: models.ProviderNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return fmt.Errorf("secure storage is not available on this system: %w", err)
		}

		if len(args) == 1 {
			p, err := models.ParseProvider(args[0])
			if err != nil {
				return err
			}
			if err := km.ClearAPIKey(p); err != nil {
				return err
			}
			pterm.Success.Printf("Removed %s API key\n", p)
			return nil
		}

		if clearDB {
			if err := km.ClearAll(); err != nil {
				return err
			}
			pterm.Success.Println("Removed all API keys and the saved database connection")
			return nil
		}
		for _, p := range models.Providers {
			if err := km.ClearAPIKey(p); err != nil {
				return err
			}
		}
		pterm.Success.Println("Removed all API keys")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysSetCmd, keysClearCmd)
	keysClearCmd.Flags().BoolVar(&clearDB, "db", false, "Also remove the saved database connection")
}
