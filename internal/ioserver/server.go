// Package ioserver exposes the ingestion engine over HTTP.
//
// Routes:
//
//	POST /api/v1/tables/{table}/rows  upsert a JSON array of rows
//	GET  /api/v1/tables               list tables
//	GET  /api/v1/tables/{table}       describe a table
//	GET  /metrics                     Prometheus metrics
//	GET  /healthz                     database liveness
package ioserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Subaru-PFS/qadb/internal/ioinput"
	"github.com/Subaru-PFS/qadb/pkg/db"
	"github.com/Subaru-PFS/qadb/pkg/errcode"
	"github.com/Subaru-PFS/qadb/pkg/ingest"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBody limits the size of one request body.
const maxBody = 64 << 20

// Server routes HTTP requests to a shared engine.
type Server struct {
	engine  *ingest.Shared
	metrics http.Handler
	router  chi.Router
	enc     gnfmt.GNjson
}

// New creates a Server. A nil metrics handler disables /metrics.
func New(engine *ingest.Shared, metrics http.Handler) *Server {
	res := &Server{engine: engine, metrics: metrics}
	res.router = res.routes()
	return res
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api/v1/tables", func(r chi.Router) {
		r.Get("/", s.listTables)
		r.Get("/{table}", s.getTable)
		r.Post("/{table}/rows", s.upsertRows)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server started", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return ServeError(addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return ServeError(addr, err)
	}
	slog.Info("HTTP server stopped", "address", addr)
	return nil
}

type upsertResponse struct {
	Table string       `json:"table"`
	Stats ingest.Stats `json:"stats"`
	Error string       `json:"error,omitempty"`

	// Row is the 1-based index of the row that stopped the batch.
	Row int `json:"row,omitempty"`
}

type tableSummary struct {
	Name string `json:"name"`
	Doc  string `json:"doc,omitempty"`
}

func (s *Server) upsertRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	res := upsertResponse{Table: table}

	rows, err := ioinput.Decode(http.MaxBytesReader(w, r.Body, maxBody), ioinput.JSON)
	if err != nil {
		res.Error = ioinput.ParseError("request body", err).Error()
		s.write(w, http.StatusBadRequest, res)
		return
	}

	stats, err := s.engine.Upsert(r.Context(), table, rows)
	res.Stats = stats
	if err != nil {
		res.Row = stats.Total() + 1
		res.Error = err.Error()
		slog.Error("HTTP ingestion failed",
			"request", middleware.GetReqID(r.Context()),
			"error", ingest.RowError(table, stats.Total(), stats, err),
		)
		s.write(w, status(err), res)
		return
	}
	s.write(w, http.StatusOK, res)
}

func (s *Server) listTables(w http.ResponseWriter, _ *http.Request) {
	tables := s.engine.Registry().Tables()
	res := make([]tableSummary, len(tables))
	for i, t := range tables {
		res[i] = tableSummary{Name: t.Name, Doc: t.Doc}
	}
	s.write(w, http.StatusOK, res)
}

func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	t, ok := s.engine.Registry().Table(name)
	if !ok {
		s.write(w, http.StatusNotFound, map[string]string{
			"error": ingest.UnknownTableError(name).Error(),
		})
		return
	}
	s.write(w, http.StatusOK, t)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Query(r.Context(), "SELECT 1"); err != nil {
		s.write(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) write(w http.ResponseWriter, code int, v any) {
	data, err := s.enc.Encode(v)
	if err != nil {
		slog.Error("Cannot encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// status maps ingestion errors to HTTP status codes.
func status(err error) int {
	if db.IsUniqueViolation(err) || db.IsForeignKeyViolation(err) {
		return http.StatusConflict
	}

	var gnErr *gn.Error
	if !errors.As(err, &gnErr) {
		return http.StatusInternalServerError
	}
	switch gnErr.Code {
	case errcode.IngestUnknownTableError:
		return http.StatusNotFound
	case errcode.IngestUnknownColumnError,
		errcode.IngestValueError,
		errcode.IngestEmptyTableNameError:
		return http.StatusBadRequest
	case errcode.IngestClosedError:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("HTTP request",
			"request", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
