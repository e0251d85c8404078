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
	"fmt"
	"io"
	"strings"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getSchemaCmd returns the schema command.
func getSchemaCmd() *cobra.Command {
	var (
		format  string
		dialect string
		names   bool
	)

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the QA schema",
		Long: `Schema prints the canonical QA schema without touching a database.

Formats:
  yaml  table descriptors: columns, keys and foreign keys (default)
  ddl   CREATE statements for --dialect postgres or sqlite

Examples:
  qadb schema
  qadb schema --names
  qadb schema -f ddl --dialect sqlite > qadb.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runSchema(cmd.OutOrStdout(), format, dialect, names)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	schemaCmd.Flags().StringVarP(&format, "format", "f", "yaml",
		"output format: yaml or ddl")
	schemaCmd.Flags().StringVar(&dialect, "dialect", "postgres",
		"SQL dialect of ddl output: postgres or sqlite")
	schemaCmd.Flags().BoolVarP(&names, "names", "n", false,
		"print table names only")

	return schemaCmd
}

func runSchema(w io.Writer, format, dialect string, names bool) error {
	reg, err := schema.Canonical()
	if err != nil {
		return err
	}

	if names {
		for _, t := range reg.Tables() {
			fmt.Fprintf(w, "%-30s %s\n", t.Name, t.Doc)
		}
		return nil
	}

	switch strings.ToLower(format) {
	case "yaml", "":
		bs, err := reg.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(bs)
		return err
	case "ddl", "sql":
		d := db.Dialect(strings.ToLower(dialect))
		if d != db.Postgres && d != db.SQLite {
			return fmt.Errorf("unknown dialect %q, use postgres or sqlite", dialect)
		}
		for _, stmt := range reg.DDL(d) {
			fmt.Fprintf(w, "%s;\n\n", strings.TrimSuffix(stmt, ";"))
		}
		return nil
	}
	return fmt.Errorf("unknown format %q, use yaml or ddl", format)
}
