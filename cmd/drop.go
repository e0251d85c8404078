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

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

// getDropCmd returns the drop command.
func getDropCmd() *cobra.Command {
	var force bool

	dropCmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop all QA tables",
		Long: `Drop every table of the QA schema, children first.

Tables that are not part of the QA schema are left alone.

Examples:
  qadb drop
  qadb drop --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := runDrop(cmd.Context(), force)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	dropCmd.Flags().BoolVarP(&force, "force", "f",
		false, "drop without confirmation")

	return dropCmd
}

func runDrop(ctx context.Context, force bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	op, sm, err := schemaManager(ctx)
	if err != nil {
		return err
	}
	defer op.Close()

	if !force && !confirm() {
		gn.Info("Aborted. No changes made.")
		return nil
	}

	if err = sm.DropAll(ctx); err != nil {
		return err
	}
	gn.Info("QA tables dropped")
	return nil
}
