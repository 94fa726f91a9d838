// Package server exposes a sheet over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"formulagrid/internal/calc"
	"formulagrid/internal/grid"
	"formulagrid/internal/sheet"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxInput = 1 << 16

// Cell is the JSON form of one cell.
type Cell struct {
	Cell    string   `json:"cell"`
	Input   string   `json:"input"`
	Display string   `json:"display"`
	Value   *float64 `json:"value,omitempty"`
	SExpr   string   `json:"sexpr,omitempty"`
	Refs    []string `json:"refs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Server serializes all access to the sheet it wraps.
type Server struct {
	mu     sync.Mutex
	sheet  *sheet.Sheet
	logger *slog.Logger
}

// NewHandler routes the cell API and, when gatherer is not nil, /metrics.
func NewHandler(s *sheet.Sheet, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	srv := &Server{sheet: s, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(srv.logRequests)

	r.Get("/cells", srv.listCells)
	r.Get("/cells/{ref}", srv.getCell)
	r.Put("/cells/{ref}", srv.putCell)
	r.Delete("/cells/{ref}", srv.deleteCell)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (srv *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		srv.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (srv *Server) listCells(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	out := make([]Cell, 0)
	for _, idx := range srv.sheet.NonEmpty() {
		out = append(out, srv.describe(idx))
	}
	srv.mu.Unlock()
	srv.writeJSON(w, http.StatusOK, out)
}

func (srv *Server) getCell(w http.ResponseWriter, r *http.Request) {
	idx, ok := srv.ref(w, r)
	if !ok {
		return
	}
	srv.mu.Lock()
	c := srv.describe(idx)
	srv.mu.Unlock()
	srv.writeJSON(w, http.StatusOK, c)
}

func (srv *Server) putCell(w http.ResponseWriter, r *http.Request) {
	idx, ok := srv.ref(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInput+1))
	if err != nil {
		srv.logger.Error("read body failed", "err", err)
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxInput {
		http.Error(w, "input too long", http.StatusRequestEntityTooLarge)
		return
	}

	srv.mu.Lock()
	srv.sheet.Set(idx, string(body))
	c := srv.describe(idx)
	srv.mu.Unlock()
	srv.writeJSON(w, http.StatusOK, c)
}

func (srv *Server) deleteCell(w http.ResponseWriter, r *http.Request) {
	idx, ok := srv.ref(w, r)
	if !ok {
		return
	}
	srv.mu.Lock()
	srv.sheet.Erase(idx)
	srv.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) ref(w http.ResponseWriter, r *http.Request) (grid.Index, bool) {
	idx, err := grid.ParseIndex(chi.URLParam(r, "ref"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return grid.Index{}, false
	}
	return idx, true
}

// describe must be called with mu held.
func (srv *Server) describe(idx grid.Index) Cell {
	v, err := srv.sheet.Value(idx)
	c := Cell{
		Cell:    idx.String(),
		Input:   srv.sheet.Get(idx),
		Display: srv.sheet.Display(idx, v, err),
	}
	if e, ok := srv.sheet.Expr(idx); ok {
		c.SExpr = calc.Render(e)
		for _, ref := range calc.References(e) {
			c.Refs = append(c.Refs, ref.String())
		}
	}
	switch {
	case err == nil:
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			c.Value = &v
		}
	case errors.Is(err, sheet.ErrEmpty), errors.Is(err, calc.ErrNotFormula):
	default:
		c.Error = err.Error()
	}
	return c
}

func (srv *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.logger.Error("response encode failed", "err", err)
	}
}
