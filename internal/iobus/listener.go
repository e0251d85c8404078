// Package iobus receives QA rows from NATS.
//
// A message published to "<subject>.<table>" carries a JSON array of
// rows (or JSON lines) for that table. When the message has a reply
// subject, the listener answers with the ingestion stats.
package iobus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Subaru-PFS/qadb/internal/ioinput"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/nats-io/nats.go"
)

// Listener subscribes to ingest subjects and upserts what it receives.
type Listener struct {
	engine  *ingest.Shared
	subject string
	enc     gnfmt.GNjson
}

// Reply is sent back to requesters.
type Reply struct {
	Table string       `json:"table"`
	Stats ingest.Stats `json:"stats"`
	Error string       `json:"error,omitempty"`
}

// New creates a Listener for "<subject>.<table>" messages.
func New(engine *ingest.Shared, subject string) *Listener {
	return &Listener{engine: engine, subject: strings.TrimSuffix(subject, ".")}
}

// Run connects to the server of cfg, listens until ctx is cancelled and
// drains the subscription.
func (l *Listener) Run(ctx context.Context, cfg config.NATSConfig) error {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("qadb"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return ConnectionError(cfg.URL, err)
	}
	defer nc.Close()

	wildcard := l.subject + ".*"
	sub, err := nc.Subscribe(wildcard, func(m *nats.Msg) {
		reply := l.Handle(ctx, m.Subject, m.Data)
		if m.Reply == "" {
			return
		}
		if err := m.Respond(reply); err != nil {
			slog.Warn("NATS reply failed", "subject", m.Subject, "error", err)
		}
	})
	if err != nil {
		return ConnectionError(cfg.URL, err)
	}
	slog.Info("NATS listener started", "url", cfg.URL, "subject", wildcard)

	<-ctx.Done()
	if err = sub.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
	slog.Info("NATS listener stopped", "subject", wildcard)
	return nil
}

// Handle upserts the rows of one message and returns the encoded
// Reply. Errors go into the reply and the log.
func (l *Listener) Handle(ctx context.Context, subject string, data []byte) []byte {
	table := strings.TrimPrefix(subject, l.subject+".")
	res := Reply{Table: table}

	rows, err := ioinput.Decode(strings.NewReader(string(data)), ioinput.JSON)
	if err == nil {
		res.Stats, err = l.engine.Upsert(ctx, table, rows)
	}
	if err != nil {
		res.Error = err.Error()
		slog.Error("NATS ingestion failed",
			"subject", subject,
			"error", ingest.RowError(table, res.Stats.Total(), res.Stats, err),
		)
	}

	out, err := l.enc.Encode(res)
	if err != nil {
		return []byte(fmt.Sprintf(`{"table":%q,"error":%q}`, table, err))
	}
	return out
}

// ConnectionError is returned when the NATS server is unreachable.
func ConnectionError(url string, err error) error {
	msg := `Cannot connect to NATS at <em>%s</em>

<em>How to fix:</em>
  Check nats.url in config.yaml or leave it empty to disable NATS`
	vars := []any{url}
	return &gn.Error{
		Code: errcode.BusConnectionError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("nats %s: %w", url, err),
	}
}
