// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for sqlagent. The root command
// takes a natural-language question, lets an LLM agent answer it by querying
// PostgreSQL through the guarded sql_engine tool and prints the answer. The
// subcommands inspect the schema, list models and manage stored credentials.
package cmd

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlagent/cli/internal/agent"
	"sqlagent/cli/internal/config"
	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/models"
	"sqlagent/cli/internal/progress"
	"sqlagent/cli/internal/terminal"
)

// DefaultQuery is answered when no question is given.
const DefaultQuery = "List all schemas and tables in the database."

var (
	aliasFlag    string
	providerFlag string
	modelFlag    string
	maxStepsFlag int
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sqlagent [query]",
	Short: "Answer questions about a PostgreSQL database in plain language",
	Long: `sqlagent turns a natural-language question into SQL, runs it against a PostgreSQL
database and returns the answer. An LLM agent plans the queries and calls a single
sql_engine tool that knows the database schema and hides PostgreSQL system schemas.

Choose a model with --alias, or with --provider and --model together. Without either
the configured default model is used. API keys are read from OPENAI_API_KEY,
GROQ_API_KEY, OPENROUTER_API_KEY or ANTHROPIC_API_KEY, a .env file, or the OS keychain.`,
	Example: `  sqlagent "How many orders were placed last month?"
  sqlagent -a groq/llama "Which customers have no orders?"
  sqlagent -p openai -m openai/gpt-4o-mini "List the five largest tables"`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runQuery,
}

// Execute runs the CLI application and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if apperrors.KindOf(err) != "" {
			logging.PresentFatal(err)
		} else {
			logging.PresentError("", err)
		}
		os.Exit(1)
	}
}

func init() {
	registerGlobalFlags(rootCmd)

	f := rootCmd.Flags()
	f.StringVarP(&aliasFlag, "alias", "a", "", "Model alias (one of: "+strings.Join(models.DefaultAliases.Names(), ", ")+")")
	f.StringVarP(&providerFlag, "provider", "p", "", "Provider when not using an alias (one of: "+strings.Join(models.ProviderNames(), ", ")+")")
	f.StringVarP(&modelFlag, "model", "m", "", "Model ID when not using an alias")
	f.IntVar(&maxStepsFlag, "max-steps", config.DefaultMaxSteps, "Maximum agent steps before giving up")
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := DefaultQuery
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		query = strings.TrimSpace(args[0])
	}

	resolved, err := resolveModel()
	if err != nil {
		return err
	}
	app.logger.Debug("model resolved", "model", resolved.String(), "defaulted", resolved.Defaulted)

	sess, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	live := terminal.IsInteractive() && !app.verbose
	renderer := progress.NewRenderer(os.Stdout, live, terminal.Width())

	a, err := agent.New(resolved, sess.Tool(), agent.Options{
		MaxSteps: app.cfg.Agent.MaxSteps,
		Observer: renderer,
		Logger:   app.logger,
	})
	if err != nil {
		return err
	}

	pterm.Printf("Processing query: %s\n", query)
	renderer.Start()
	answer, err := a.Run(cmd.Context(), query)
	renderer.Stop()
	if err != nil {
		return err
	}

	pterm.Println()
	pterm.Println(pterm.Gray(renderer.Summary()))
	pterm.Println("Query completed.")
	pterm.Println()
	pterm.Println(answer)
	return nil
}

// resolveModel rejects unknown aliases up front, then applies the resolver's
// precedence with credentials from the environment, .env and the keychain.
func resolveModel() (models.Resolved, error) {
	if aliasFlag != "" {
		if _, ok := models.DefaultAliases.Lookup(aliasFlag); !ok {
			return models.Resolved{}, apperrors.Newf(apperrors.ConfigurationError,
				"unknown alias %q (one of: %s)", aliasFlag, strings.Join(models.DefaultAliases.Names(), ", "))
		}
	}
	if providerFlag != "" {
		if _, err := models.ParseProvider(providerFlag); err != nil {
			return models.Resolved{}, err
		}
	}
	if (providerFlag == "") != (modelFlag == "") && aliasFlag == "" {
		app.logger.Warn("--provider and --model must be given together; using the default model")
	}

	def, err := models.ParseProvider(app.cfg.Model.Provider)
	if err != nil {
		return models.Resolved{}, err
	}
	r := models.NewResolver(models.DefaultAliases, credentials(), def, app.cfg.Model.ID, app.logger)
	return r.Resolve(models.Request{Alias: aliasFlag, Provider: providerFlag, ModelID: modelFlag})
}
