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

	qadb "github.com/Subaru-PFS/qadb/pkg"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getMigrateCmd returns the migrate command.
func getMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring database schema to the current version",
		Long: `Migrate creates QA tables that are missing from the database
and records the current schema version.

Existing tables and their data are never changed or removed. Use this
command after updating qadb to get new tables.

Examples:
  qadb migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runMigrate(cmd.Context())
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	return migrateCmd
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	op, sm, err := schemaManager(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	before, err := sm.Version(ctx)
	if err != nil {
		return err
	}

	gn.Info("Migrating schema to version <em>%s</em>...", qadb.SchemaVersion)
	if err = sm.Ensure(ctx); err != nil {
		return err
	}

	if before == "" {
		before = "none"
	}
	gn.Info("Schema is now up to date (was <em>%s</em>).", before)
	return nil
}
