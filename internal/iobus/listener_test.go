package iobus_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Subaru-PFS/qadb/internal/iobus"
	"github.com/Subaru-PFS/qadb/internal/ioschema"
	"github.com/Subaru-PFS/qadb/internal/iotesting"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/Subaru-PFS/qadb/pkg/schema"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListener(t *testing.T) *iobus.Listener {
	t.Helper()
	ctx := context.Background()
	reg, err := schema.Canonical()
	require.NoError(t, err)

	op := iotesting.ConnectSQLite(t)
	require.NoError(t, ioschema.NewManager(op, reg).CreateAll(ctx))
	e, err := ingest.Open(ctx,
		func(context.Context) (db.Operator, error) { return op, nil }, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	return iobus.New(ingest.NewShared(e), "qadb.ingest.")
}

func reply(t *testing.T, data []byte) iobus.Reply {
	t.Helper()
	var res iobus.Reply
	require.NoError(t, json.Unmarshal(data, &res))
	return res
}

func TestHandle(t *testing.T) {
	ctx := context.Background()
	l := newListener(t)

	res := reply(t, l.Handle(ctx, "qadb.ingest.pfs_visit",
		[]byte(`[{"pfs_visit_id": 100}, {"pfs_visit_id": 101}]`)))
	assert.Equal(t, "pfs_visit", res.Table)
	assert.Equal(t, ingest.Stats{Inserted: 2}, res.Stats)
	assert.Empty(t, res.Error)

	res = reply(t, l.Handle(ctx, "qadb.ingest.telescope",
		[]byte("{\"pfs_visit_id\": 100, \"airmass\": 1.2}\n{\"pfs_visit_id\": 100, \"airmass\": 1.3}\n")))
	assert.Equal(t, ingest.Stats{Inserted: 1, Updated: 1}, res.Stats)

	res = reply(t, l.Handle(ctx, "qadb.ingest.telescope",
		[]byte(`[{"pfs_visit_id": 100, "airmass": 1.4}, {"pfs_visit_id": 555}]`)))
	assert.Equal(t, ingest.Stats{Updated: 1}, res.Stats)
	assert.NotEmpty(t, res.Error)

	res = reply(t, l.Handle(ctx, "qadb.ingest.telescope", []byte(`[{`)))
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, res.Stats.Total())

	res = reply(t, l.Handle(ctx, "qadb.ingest.fwhm", []byte(`[]`)))
	assert.Equal(t, "fwhm", res.Table)
	assert.NotEmpty(t, res.Error)
}

func TestRunNoServer(t *testing.T) {
	l := newListener(t)
	err := l.Run(context.Background(), config.NATSConfig{URL: "nats://127.0.0.1:1"})
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.BusConnectionError, gnErr.Code)
}
