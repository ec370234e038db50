// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/models"
)

// modelsCmd lists the alias registry and which providers have keys.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model aliases and credential availability",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := credentials()

		data := pterm.TableData{{"Alias", "Provider", "Model", "API key"}}
		for _, alias := range models.DefaultAliases.Names() {
			t, _ := models.DefaultAliases.Lookup(alias)
			data = append(data, []string{alias, string(t.Provider), t.ModelID, keyStatus(creds, t.Provider)})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}

		pterm.Println()
		pterm.Printf("Default: %s (%s)\n", app.cfg.Model.ID, app.cfg.Model.Provider)
		return nil
	},
}

func keyStatus(creds models.CredentialStore, p models.Provider) string {
	if _, ok := creds.Lookup(p); ok {
		return pterm.Green("available")
	}
	return pterm.Yellow("missing (" + p.EnvVar() + ")")
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
