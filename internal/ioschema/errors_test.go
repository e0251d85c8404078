package ioschema

import (
	"errors"
	"testing"

	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/gnames/gn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Structure verifies codes, vars and wrapping of schema
// errors.
func TestErrors_Structure(t *testing.T) {
	originalErr := errors.New("root cause")

	tests := []struct {
		name string
		err  error
		code gn.ErrorCode
		vars []any
	}{
		{
			name: "CreateSchemaError",
			err:  CreateSchemaError("seeing", originalErr),
			code: errcode.SchemaCreateError,
			vars: []any{"seeing"},
		},
		{
			name: "DropSchemaError",
			err:  DropSchemaError("seeing", originalErr),
			code: errcode.SchemaDropError,
			vars: []any{"seeing"},
		},
		{
			name: "VersionRecordError",
			err:  VersionRecordError("v0.1.0", originalErr),
			code: errcode.SchemaVersionError,
			vars: []any{"v0.1.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gnErr, ok := tt.err.(*gn.Error)
			require.True(t, ok, "Error should be of type *gn.Error")

			assert.Equal(t, tt.code, gnErr.Code)
			assert.NotEmpty(t, gnErr.Msg)
			assert.Equal(t, tt.vars, gnErr.Vars)
			assert.ErrorIs(t, gnErr.Err, originalErr,
				"Should wrap original error")
		})
	}
}
