/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Subaru-PFS/qadb/internal/iodb"
	"github.com/Subaru-PFS/qadb/internal/ioconfig"
	"github.com/Subaru-PFS/qadb/internal/iofs"
	"github.com/Subaru-PFS/qadb/internal/iologger"
	"github.com/Subaru-PFS/qadb/internal/iometrics"
	"github.com/Subaru-PFS/qadb/internal/ioschema"
	qadb "github.com/Subaru-PFS/qadb/pkg"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/Subaru-PFS/qadb/pkg/lifecycle"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

var (
	// cfg is loaded by bootstrap before any subcommand runs.
	cfg *config.Config

	// dbURL overrides database settings from config and environment.
	dbURL string
)

// getRootCmd returns the root command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", qadb.Version, qadb.Build),
		Use:     "qadb",
		Short:   "qadb keeps quality-assessment results of PFS data",
		Long: `qadb manages the PFS QA database: a PostgreSQL (or SQLite) store
of observing-condition and pipeline quality metrics keyed by visit,
calibration set and processing run.

Commands:
  - create:  create the schema (drop it first with --force)
  - drop:    drop all QA tables
  - migrate: create missing tables of the current schema
  - ingest:  upsert rows from CSV or JSON files, local or s3://
  - query:   run a SQL query and print the result
  - schema:  print the schema as YAML or DDL
  - serve:   accept rows over HTTP and NATS
  - visit:   register visits, calibration sets and processing runs

Ingestion is idempotent: rows are matched by their natural key and
re-ingested rows update the stored ones.

Configuration precedence (highest to lowest):
  1. CLI flags (--db)
  2. Environment variables (QADB_*)
  3. Config file (~/.config/qadb/config.yaml)
  4. Built-in defaults

Examples:
  QADB_DATABASE_HOST      PostgreSQL host
  QADB_DATABASE_PASSWORD  PostgreSQL password (empty: use ~/.pgpass)
  QADB_DATABASE_URL       postgresql://pfs@db:5432/qadb or sqlite:///tmp/qa.db
  QADB_INGEST_SENTINEL    value stored instead of missing numbers`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "qadb version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for qadb")

	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "",
		"database URL, overrides config (postgresql://... or sqlite://...)")

	rootCmd.AddCommand(
		getCreateCmd(),
		getDropCmd(),
		getMigrateCmd(),
		getIngestCmd(),
		getQueryCmd(),
		getSchemaCmd(),
		getServeCmd(),
		getVisitCmd(),
	)

	return rootCmd
}

func bootstrap(cmd *cobra.Command, _ []string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if cfg, err = ioconfig.Load(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if cmd.Flags().Changed("db") {
		cfg.Update([]config.Option{config.OptDatabaseURL(dbURL)})
	}

	// Reconfigure logging with user's settings, keeping what was
	// already written during bootstrap.
	if err = iologger.Init(config.LogDir(homeDir), cfg.Log, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"driver", cfg.Database.Driver,
	)
	return nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// connect opens the configured database and reports where it is.
func connect(ctx context.Context) (db.Operator, error) {
	op, err := iodb.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	gn.Info("Connected to database: <em>%s</em>", describeDB(&cfg.Database))
	return op, nil
}

func describeDB(c *config.DatabaseConfig) string {
	if db.Dialect(c.Driver) == db.SQLite {
		return "sqlite:" + c.Path
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// schemaManager connects and returns a manager of the canonical schema.
// The caller closes the operator.
func schemaManager(
	ctx context.Context,
) (db.Operator, lifecycle.SchemaManager, error) {
	reg, err := schema.Canonical()
	if err != nil {
		return nil, nil, err
	}
	op, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return op, ioschema.NewManager(op, reg), nil
}

// openEngine starts an ingestion engine over the configured database.
// With a non-nil metrics, row outcomes are counted there.
func openEngine(
	ctx context.Context,
	metrics *iometrics.Metrics,
) (*ingest.Engine, error) {
	reg, err := schema.Canonical()
	if err != nil {
		return nil, err
	}

	opts := []ingest.Option{ingest.OptSentinel(cfg.Ingest.Sentinel)}
	if metrics != nil {
		opts = append(opts, ingest.OptObserver(metrics))
	}

	e, err := ingest.Open(ctx, iodb.Factory(cfg.Database), reg, opts...)
	if err != nil {
		return nil, err
	}
	gn.Info("Connected to database: <em>%s</em>", describeDB(&cfg.Database))
	return e, nil
}

// writeMetrics saves metrics for the textfile collector when
// metrics.textfile is configured.
func writeMetrics(m *iometrics.Metrics) {
	if cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		gn.PrintErrorMessage(err)
		return
	}
	slog.Info("Metrics written", "path", cfg.Metrics.Textfile)
}
