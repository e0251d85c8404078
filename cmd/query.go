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
	"strings"
	"time"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// getQueryCmd returns the query command.
func getQueryCmd() *cobra.Command {
	var format string

	queryCmd := &cobra.Command{
		Use:   "query [flags] <sql>",
		Short: "Run a SQL query and print the result",
		Long: `Query runs one SQL statement against the QA database and prints
the whole result to STDOUT.

Formats:
  csv   comma-separated with a header line (default)
  tsv   tab-separated with a header line
  json  an array of objects, one per row

Examples:
  qadb query "SELECT * FROM seeing WHERE pfs_visit_id = 100"
  qadb query -f json "SELECT pfs_visit_id, moon_phase FROM moon"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runQuery(cmd, args[0], format)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	queryCmd.Flags().StringVarP(&format, "format", "f", "csv",
		"output format: csv, tsv or json")

	return queryCmd
}

func runQuery(cmd *cobra.Command, sql, format string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := openEngine(ctx, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.Query(ctx, sql)
	if err != nil {
		return err
	}

	out, err := formatResult(res, format)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// formatResult renders a query result as csv, tsv or json.
func formatResult(res *db.Result, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		enc := gnfmt.GNjson{Pretty: true}
		bs, err := enc.Encode(res.Records())
		if err != nil {
			return "", err
		}
		return string(bs) + "\n", nil
	case "csv", "":
		return delimited(res, ','), nil
	case "tsv":
		return delimited(res, '\t'), nil
	}
	return "", fmt.Errorf("unknown format %q, use csv, tsv or json", format)
}

func delimited(res *db.Result, sep rune) string {
	var b strings.Builder
	b.WriteString(gnfmt.ToCSV(res.Columns, sep))
	b.WriteString("\n")
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(v)
		}
		b.WriteString(gnfmt.ToCSV(cells, sep))
		b.WriteString("\n")
	}
	return b.String()
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	}
	return cast.ToString(v)
}
