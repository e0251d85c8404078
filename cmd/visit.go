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
	"database/sql"
	"fmt"
	"time"

	"github.com/Subaru-PFS/qadb/internal/ioroots"
	"github.com/Subaru-PFS/qadb/pkg/lifecycle"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/gnames/gn"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

// getVisitCmd returns the visit command with its subcommands.
func getVisitCmd() *cobra.Command {
	visitCmd := &cobra.Command{
		Use:   "visit",
		Short: "Register visits, calibration sets and processing runs",
		Long: `Visit manages the root records QA rows refer to. QA rows of a visit,
calibration set or processing run can be ingested only after the record
is registered.

These commands need PostgreSQL. With SQLite, ingest rows into the
pfs_visit, calibs and processing tables instead.`,
	}

	visitCmd.AddCommand(
		getVisitAddCmd(),
		getVisitListCmd(),
		getCalibAddCmd(),
		getRunAddCmd(),
	)
	return visitCmd
}

func getVisitAddCmd() *cobra.Command {
	var (
		description string
		designID    int64
		issuedAt    string
	)

	cmd := &cobra.Command{
		Use:   "add [flags] <pfs_visit_id>",
		Short: "Register or update a visit",
		Example: `  qadb visit add 100
  qadb visit add 100 --design-id 0x5a8f --issued-at 2025-05-20T10:30:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withRoots(cmd.Context(), func(ctx context.Context, r lifecycle.Roots) error {
				id, err := cast.ToInt32E(args[0])
				if err != nil {
					return fmt.Errorf("visit id %q: %w", args[0], err)
				}
				v := &schema.PfsVisit{PfsVisitID: id}
				if cmd.Flags().Changed("description") {
					v.PfsVisitDescription = sql.NullString{String: description, Valid: true}
				}
				if cmd.Flags().Changed("design-id") {
					v.PfsDesignID = sql.NullInt64{Int64: designID, Valid: true}
				}
				if v.IssuedAt, err = nullTime(issuedAt); err != nil {
					return err
				}
				if err = r.AddVisit(ctx, v); err != nil {
					return err
				}
				gn.Info("Visit <em>%d</em> registered", v.PfsVisitID)
				return nil
			})
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "visit description")
	cmd.Flags().Int64Var(&designID, "design-id", 0, "PFS design identifier")
	cmd.Flags().StringVar(&issuedAt, "issued-at", "", "issue time, YYYY-MM-DDThh:mm:ss")
	return cmd
}

func getVisitListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent visits",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := withRoots(cmd.Context(), func(ctx context.Context, r lifecycle.Roots) error {
				visits, err := r.Visits(ctx, limit)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, v := range visits {
					issued := ""
					if v.IssuedAt.Valid {
						issued = v.IssuedAt.Time.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\n",
						v.PfsVisitID, issued, v.PfsVisitDescription.String)
				}
				return nil
			})
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of visits, 0 for all")
	return cmd
}

func getCalibAddCmd() *cobra.Command {
	var description, drpVersion, generatedAt string

	cmd := &cobra.Command{
		Use:     "calib [flags] <calib_name>",
		Short:   "Register or update a calibration set",
		Example: `  qadb visit calib CALIB-2024-07-v1 --drp-version w.2024.28`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withRoots(cmd.Context(), func(ctx context.Context, r lifecycle.Roots) error {
				c := &schema.Calib{
					CalibName:        args[0],
					CalibDescription: nullString(description),
					DrpVersion:       nullString(drpVersion),
				}
				var err error
				if c.GeneratedAt, err = nullTime(generatedAt); err != nil {
					return err
				}
				if err = r.AddCalib(ctx, c); err != nil {
					return err
				}
				gn.Info("Calibration <em>%s</em> registered with calib_id %d",
					c.CalibName, c.CalibID)
				return nil
			})
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "calibration description")
	cmd.Flags().StringVar(&drpVersion, "drp-version", "", "DRP2D version")
	cmd.Flags().StringVar(&generatedAt, "generated-at", "", "generation time")
	return cmd
}

func getRunAddCmd() *cobra.Command {
	var (
		pipeline                       string
		description, stage, drpVersion string
		calibID, visitID               int32
	)

	cmd := &cobra.Command{
		Use:   "run [flags] <rerun>",
		Short: "Register or update a 2D or 1D processing run",
		Example: `  qadb visit run run21 --pipeline 2d --calib-id 3
  qadb visit run run21-1d --pipeline 1d --stage redshift`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			visit := sql.NullInt32{Int32: visitID, Valid: flags.Changed("visit")}
			err := withRoots(cmd.Context(), func(ctx context.Context, r lifecycle.Roots) error {
				switch pipeline {
				case "2d":
					p := &schema.Drp2dProcessing{
						Rerun:       args[0],
						Description: nullString(description),
						CalibID:     sql.NullInt32{Int32: calibID, Valid: flags.Changed("calib-id")},
						PfsVisitID:  visit,
						Stage:       nullString(stage),
						DrpVersion:  nullString(drpVersion),
					}
					if err := r.AddDrp2dProcessing(ctx, p); err != nil {
						return err
					}
					gn.Info("2D run <em>%s</em> registered with processing_id %d",
						p.Rerun, p.ProcessingID)
				case "1d":
					p := &schema.Drp1dProcessing{
						Rerun:       args[0],
						Description: nullString(description),
						PfsVisitID:  visit,
						Stage:       nullString(stage),
						DrpVersion:  nullString(drpVersion),
					}
					if err := r.AddDrp1dProcessing(ctx, p); err != nil {
						return err
					}
					gn.Info("1D run <em>%s</em> registered with processing_id %d",
						p.Rerun, p.ProcessingID)
				default:
					return fmt.Errorf("unknown pipeline %q, use 2d or 1d", pipeline)
				}
				return nil
			})
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&pipeline, "pipeline", "p", "2d", "pipeline: 2d or 1d")
	cmd.Flags().StringVarP(&description, "description", "d", "", "run description")
	cmd.Flags().StringVar(&stage, "stage", "", "pipeline stage name")
	cmd.Flags().StringVar(&drpVersion, "drp-version", "", "pipeline version")
	cmd.Flags().Int32Var(&calibID, "calib-id", 0, "calibration set of a 2D run")
	cmd.Flags().Int32Var(&visitID, "visit", 0, "visit of a visit-specific run")
	return cmd
}

// withRoots connects, runs fn with a Roots repository and closes the
// connection.
func withRoots(
	ctx context.Context,
	fn func(context.Context, lifecycle.Roots) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	op, err := connect(ctx)
	if err != nil {
		return err
	}
	defer op.Close()
	return fn(ctx, ioroots.New(op))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(s string) (sql.NullTime, error) {
	if s == "" {
		return sql.NullTime{}, nil
	}
	t, err := cast.ToTimeE(s)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("time %q: %w", s, err)
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}, nil
}
