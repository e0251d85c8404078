package ingest

import (
	"context"
	"sync"

	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/schema"
)

// Shared lets several goroutines use one Engine. Calls are serialized,
// so batches never interleave.
type Shared struct {
	mu     sync.Mutex
	engine *Engine
}

// NewShared wraps an engine. The caller still owns the engine and
// closes it.
func NewShared(e *Engine) *Shared {
	return &Shared{engine: e}
}

// Upsert calls Engine.Upsert under the lock.
func (s *Shared) Upsert(ctx context.Context, table string, rows []Row) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Upsert(ctx, table, rows)
}

// Query calls Engine.Query under the lock.
func (s *Shared) Query(ctx context.Context, sql string, args ...any) (*db.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Query(ctx, sql, args...)
}

// Registry returns the tables the engine accepts.
func (s *Shared) Registry() *schema.Registry {
	return s.engine.Registry()
}
