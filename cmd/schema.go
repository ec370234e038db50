// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showToolDescription bool

// schemaCmd prints the schema description the agent sees.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the database schema description given to the model",
	Long: `The schema command connects to the database, introspects every non-system schema
and prints the same table and column description that is embedded in the sql_engine
tool. Use --tool to print the complete tool description instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer sess.Close()

		if showToolDescription {
			pterm.Println(sess.ToolDescription())
			return nil
		}

		pterm.DefaultSection.Printf("%s (%d tables)", sess.Database(), sess.Schema().Len())
		if sess.Schema().Len() == 0 {
			pterm.Println("No user tables found.")
			return nil
		}
		pterm.Println(sess.Schema().String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().BoolVar(&showToolDescription, "tool", false, "Print the full sql_engine tool description")
}
