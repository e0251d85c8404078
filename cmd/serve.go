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
	"os"
	"os/signal"
	"syscall"

	"github.com/Subaru-PFS/qadb/internal/iobus"
	"github.com/Subaru-PFS/qadb/internal/iometrics"
	"github.com/Subaru-PFS/qadb/internal/ioserver"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// getServeCmd returns the serve command.
func getServeCmd() *cobra.Command {
	var address, natsURL string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept QA rows over HTTP and NATS",
		Long: `Serve keeps one ingestion engine open and accepts rows from QA jobs.

HTTP routes:
  POST /api/v1/tables/{table}/rows  JSON array of rows to upsert
  GET  /api/v1/tables               list of tables
  GET  /api/v1/tables/{table}       table description
  GET  /metrics                     Prometheus metrics
  GET  /healthz                     database liveness

When nats.url is set, messages published to "<nats.subject>.<table>"
are upserted too. Requests with a reply subject get the stats back.

Batches from all sources are written one after another.

Examples:
  qadb serve
  qadb serve --address :9090 --nats nats://localhost:4222`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []config.Option
			if cmd.Flags().Changed("address") {
				opts = append(opts, config.OptServerAddress(address))
			}
			if cmd.Flags().Changed("nats") {
				opts = append(opts, config.OptNATSURL(natsURL))
			}
			cfg.Update(opts)

			err := runServe(cmd.Context())
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	serveCmd.Flags().StringVarP(&address, "address", "a", "",
		"HTTP address, overrides server.address")
	serveCmd.Flags().StringVar(&natsURL, "nats", "",
		"NATS server URL, overrides nats.url")

	return serveCmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := iometrics.New()
	e, err := openEngine(ctx, metrics)
	if err != nil {
		return err
	}
	defer e.Close()
	shared := ingest.NewShared(e)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		srv := ioserver.New(shared, metrics.Handler())
		return srv.Run(ctx, cfg.Server.Address)
	})
	gn.Info("Listening on <em>%s</em>", cfg.Server.Address)

	if cfg.NATS.URL != "" {
		g.Go(func() error {
			return iobus.New(shared, cfg.NATS.Subject).Run(ctx, cfg.NATS)
		})
		gn.Info("Subscribed to <em>%s.*</em> at %s", cfg.NATS.Subject, cfg.NATS.URL)
	}

	return g.Wait()
}
