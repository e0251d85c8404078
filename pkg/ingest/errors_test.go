package ingest_test

import (
	"errors"
	"testing"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	orig := errors.New("boom")
	tests := []struct {
		msg  string
		err  error
		code gn.ErrorCode
		vars int
	}{
		{"empty", ingest.EmptyTableNameError(), errcode.IngestEmptyTableNameError, 0},
		{"table", ingest.UnknownTableError("seeing_qa"), errcode.IngestUnknownTableError, 1},
		{"column", ingest.UnknownColumnError("seeing", "fwhm"), errcode.IngestUnknownColumnError, 2},
		{"value", ingest.ValueError("seeing", "seeing_mean", "x", orig), errcode.IngestValueError, 3},
		{"closed", ingest.ClosedError(), errcode.IngestClosedError, 0},
	}

	for _, v := range tests {
		gnErr, ok := v.err.(*gn.Error)
		require.True(t, ok, v.msg)
		assert.Equal(t, v.code, gnErr.Code, v.msg)
		assert.Len(t, gnErr.Vars, v.vars, v.msg)
		assert.NotEmpty(t, gnErr.Msg, v.msg)
		assert.Error(t, gnErr.Err, v.msg)
	}

	valErr := ingest.ValueError("seeing", "seeing_mean", "x", orig)
	assert.ErrorIs(t, valErr.(*gn.Error).Err, orig)
}

func TestRowError(t *testing.T) {
	orig := errors.New("constraint failed")
	stats := ingest.Stats{Inserted: 2, Dropped: 1}

	err := ingest.RowError("moon", 3, stats, orig)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.IngestRowError, gnErr.Code)
	assert.Equal(t, []any{"moon", 4, 2, 0, 0, 1}, gnErr.Vars)
	assert.ErrorIs(t, gnErr.Err, orig)
	assert.Contains(t, gnErr.Err.Error(), "row 4")
}
