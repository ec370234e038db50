// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sqlagent/cli/internal/config"
	"sqlagent/cli/internal/dsn"
	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/keychain"
	"sqlagent/cli/internal/logging"
	"sqlagent/cli/internal/models"
	"sqlagent/cli/internal/session"
)

// app holds per-invocation state prepared by setup.
var app struct {
	v       *viper.Viper
	cfg     config.Config
	logger  *slog.Logger
	verbose bool
}

var (
	configFile string
	dotEnvFile string
	dsnFlag    string
)

func registerGlobalFlags(c *cobra.Command) {
	pf := c.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/sqlagent/config.yaml)")
	pf.StringVar(&dotEnvFile, "env-file", ".env", "Dotenv file with provider API keys")
	pf.StringVar(&dsnFlag, "dsn", "", "PostgreSQL connection string (overrides environment and keychain)")
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	app.v = config.NewViper()
	if f := cmd.Flags().Lookup("max-steps"); f != nil && f.Changed {
		if err := app.v.BindPFlag(config.KeyMaxSteps, f); err != nil {
			return err
		}
	}

	cfg, err := config.Load(app.v, config.Options{ConfigFile: configFile, DotEnv: dotEnvFile})
	if err != nil {
		return err
	}
	app.cfg = cfg

	level := cfg.LogLevel
	if app.verbose {
		level = "debug"
	}
	app.logger = logging.NewLogger(level, os.Stderr)
	slog.SetDefault(app.logger)
	app.logger.Debug("configuration loaded", "source", cfg.Describe())
	return nil
}

// keyring returns the OS keychain manager, or nil when no backend is available.
func keyring() *keychain.Manager {
	km, err := keychain.GetManager()
	if err != nil {
		app.logger.Debug("keychain unavailable", "error", err)
		return nil
	}
	return km
}

// credentials chains the process environment and .env file ahead of the keychain.
func credentials() models.CredentialStore {
	chain := models.ChainStore{models.NewEnvStore(app.cfg.LookupEnv)}
	if km := keyring(); km != nil {
		chain = append(chain, km)
	}
	return chain
}

// dsnSources lists DSN sources in precedence order.
func dsnSources() []dsn.Source {
	sources := []dsn.Source{
		dsn.Value("--dsn flag", dsnFlag),
		dsn.Env("SQLAGENT_DSN", os.LookupEnv),
		dsn.Env("DATABASE_URL", os.LookupEnv),
	}
	if km := keyring(); km != nil {
		sources = append(sources, dsn.Source{Name: "OS keychain", Load: km.LoadDBDSN})
	}
	return append(sources, dsn.Value("configuration", app.cfg.DB.DSN))
}

// resolveDSN picks and normalizes the DSN for this run.
func resolveDSN() (string, string, error) {
	raw, source, err := dsn.Resolve(dsnSources()...)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ConfigurationError, "run 'sqlagent connect' or set SQLAGENT_DSN", err)
	}
	normalized, err := dsn.Parse(raw)
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.ConfigurationError, "invalid DSN from "+source, err)
	}
	return normalized, source, nil
}

// openSession connects and introspects with a spinner on interactive terminals.
func openSession(ctx context.Context) (*session.Session, error) {
	conn, source, err := resolveDSN()
	if err != nil {
		return nil, err
	}
	app.logger.Debug("using database", "source", source, "dsn", logging.Mask(conn))

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Reading database schema")
	sess, err := session.Connect(ctx, conn, app.cfg.Schema.Excluded, app.logger)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return nil, err
	}
	app.logger.Debug("schema ready", "database", sess.Database(), "tables", sess.Schema().Len())
	return sess, nil
}
