// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"net/url"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/dsn"
)

// dbinfoCmd displays the DSN that a run would use, with the password masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo",
	Short: "Show current database connection string",
	Long: `The dbinfo command displays the database connection string (DSN) that queries
would use and where it came from: --dsn, SQLAGENT_DSN, DATABASE_URL, the OS keychain
or the configuration. The password is replaced with *** for security.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, source, err := resolveDSN()
		if err != nil {
			return err
		}
		info, err := dsn.ParseInfo(conn)
		if err != nil {
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Database Connection")).
			WithPadding(1).
			Println(maskPassword(info))
		pterm.Println()

		data := pterm.TableData{
			{"Source", source},
			{"Host", info.Host},
			{"Port", info.Port},
			{"Database", info.Database},
			{"User", info.User},
		}
		if err := pterm.DefaultTable.WithData(data).Render(); err != nil {
			return err
		}
		pterm.Println()
		pterm.Println("To update this connection, run: sqlagent connect")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}

// maskPassword renders info as a normalized DSN with the password replaced by ***.
// The mask is spliced in after normalizing so it is not percent-encoded.
func maskPassword(info *dsn.Info) string {
	masked := *info
	masked.Password = ""
	out, err := dsn.Normalize(&masked)
	if err != nil || info.Password == "" {
		return out
	}
	user := url.User(info.User).String()
	return strings.Replace(out, "://"+user+"@", "://"+user+":***@", 1)
}
