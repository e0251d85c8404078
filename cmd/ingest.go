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
	"runtime"
	"time"

	"github.com/Subaru-PFS/qadb/internal/ioinput"
	"github.com/Subaru-PFS/qadb/internal/iomanifest"
	"github.com/Subaru-PFS/qadb/internal/iometrics"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/Subaru-PFS/qadb/pkg/manifest"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// getIngestCmd returns the ingest command.
func getIngestCmd() *cobra.Command {
	var table, manifestPath, selection string

	ingestCmd := &cobra.Command{
		Use:   "ingest [flags] <file|s3://bucket/key>...",
		Short: "Upsert QA rows from CSV or JSON files",
		Long: `Ingest reads QA results and upserts them into a QA table.

Inputs are CSV, TSV, JSON arrays or JSON lines, local or in S3. Files
are parsed in parallel (jobs_number), rows are written one at a time in
input order. A row whose natural key already exists updates the stored
row, so ingesting the same file twice changes nothing.

Missing numbers (empty cells, null, NaN) are stored as the sentinel
from ingest.sentinel. Rows without a complete natural key are skipped
with a warning. The first failing row stops ingestion, rows before it
stay stored.

Without --table, the table name is taken from each file name
(seeing.csv goes to the seeing table).

A manifest (--manifest) is a YAML list of inputs with their tables and
formats. Manifest inputs are ingested before the files given as
arguments; --select picks some of them by position or table.

Examples:
  qadb ingest --table seeing seeing_run21.csv
  qadb ingest moon.json telescope.jsonl
  qadb ingest -t detectormap_qa s3://pfs-qa/run21/detectormap_qa.csv
  qadb ingest --manifest run21.yaml --select 1-3,moon`,
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := ingestInputs(manifestPath, selection, table, args)
			if err == nil {
				err = runIngest(cmd.Context(), inputs)
			}
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	ingestCmd.Flags().StringVarP(&table, "table", "t", "",
		"target table (default: file name without extension)")
	ingestCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "",
		"YAML manifest listing inputs")
	ingestCmd.Flags().StringVarP(&selection, "select", "s", "",
		"manifest inputs to ingest: positions (1,3,5-) or tables (seeing,moon)")

	return ingestCmd
}

// input is one parsed file.
type input struct {
	location string
	table    string
	rows     []ingest.Row
}

// ingestInputs combines the selected manifest inputs with files from the
// command line.
func ingestInputs(
	manifestPath, selection, table string,
	locations []string,
) ([]manifest.Input, error) {
	var res []manifest.Input
	if manifestPath != "" {
		reg, err := schema.Canonical()
		if err != nil {
			return nil, err
		}
		m, err := iomanifest.New(manifestPath, reg.Names()).Load()
		if err != nil {
			return nil, err
		}
		if len(m.Warnings) > 0 {
			gn.Warn("Manifest has %d warning(s), see the log", len(m.Warnings))
		}

		inputs, warnings, err := manifest.Filter(m.Inputs, selection)
		for _, w := range warnings {
			gn.Warn("%s", w)
		}
		if err != nil {
			return nil, iomanifest.FilterError(selection, err)
		}
		res = append(res, inputs...)
	}

	for _, loc := range locations {
		res = append(res, manifest.Input{Location: loc, Table: table})
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("nothing to ingest: give files or --manifest")
	}
	return res, nil
}

func runIngest(ctx context.Context, sources []manifest.Input) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	inputs, err := readInputs(ctx, sources)
	if err != nil {
		return err
	}

	var total int
	for _, v := range inputs {
		total += len(v.rows)
	}
	gn.Info("Read <em>%s</em> rows from %d file(s)",
		humanize.Comma(int64(total)), len(inputs))

	metrics := iometrics.New()
	defer writeMetrics(metrics)

	e, err := openEngine(ctx, metrics)
	if err != nil {
		return err
	}
	defer e.Close()

	bar := pb.Full.Start(total)
	bar.Set("prefix", "Upserting ")
	bar.Set(pb.CleanOnFinish, true)

	var sum ingest.Stats
	for _, v := range inputs {
		stats, err := e.Upsert(ctx, v.table, v.rows)
		bar.Add(stats.Total())
		sum = sum.Add(stats)
		if err != nil {
			bar.Finish()
			gn.Warn("Stopped at <em>%s</em>", v.location)
			return ingest.RowError(v.table, stats.Total(), stats, err)
		}
	}
	bar.Finish()

	gn.Info(`Ingested <em>%s</em> rows in %s
  inserted:  %s
  updated:   %s
  unchanged: %s
  dropped:   %s`,
		humanize.Comma(int64(sum.Total())),
		gnfmt.TimeString(time.Since(start).Seconds()),
		humanize.Comma(int64(sum.Inserted)),
		humanize.Comma(int64(sum.Updated)),
		humanize.Comma(int64(sum.Unchanged)),
		humanize.Comma(int64(sum.Dropped)),
	)
	if sum.Dropped > 0 {
		gn.Warn("Some rows were dropped, see the log for their keys")
	}
	return nil
}

// readInputs parses all sources concurrently and returns them in
// the given order.
func readInputs(
	ctx context.Context,
	sources []manifest.Input,
) ([]input, error) {
	reader := ioinput.NewReader(cfg.S3)
	res := make([]input, len(sources))

	jobs := cfg.JobsNumber
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			f := ioinput.FormatOf(src.Location)
			if src.Format != "" {
				f = ioinput.ParseFormat(src.Format)
			}
			rows, err := reader.LoadFormat(ctx, src.Location, f)
			if err != nil {
				return err
			}
			res[i] = input{location: src.Location, table: src.TableName(), rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
