// Package http exposes the ledger read API and the bill submission endpoint
// to dashboard and export consumers. It talks to the ledger store and the
// bill service only through their read/write contracts.
package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"billtracker/internal/core"
	"billtracker/internal/export"
	"billtracker/internal/log"
	"billtracker/internal/middleware/ratelimit"
	"billtracker/internal/middleware/trace"
)

// LedgerReader is the read surface the API exposes. All methods return
// copies or derived values.
type LedgerReader interface {
	Entries() []core.LedgerEntry
	EntriesFor(w core.Window) []core.LedgerEntry
	Summary() core.Summary
	SummaryFor(w core.Window) core.Summary
	Recent(n int) []core.LedgerEntry
	UserID() string
}

// BillSubmitter accepts draft entries for the active user.
type BillSubmitter interface {
	Submit(ctx context.Context, userID string, d core.Draft) (string, error)
}

type server struct {
	reader    LedgerReader
	submitter BillSubmitter
	sink      export.Sink
	logger    *log.Logger
}

// NewServer builds the API server. sink may be nil when no export sink is
// configured; the export write endpoint then responds 503.
func NewServer(addr string, reader LedgerReader, submitter BillSubmitter, sink export.Sink, logger *log.Logger) *http.Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &server{
		reader:    reader,
		submitter: submitter,
		sink:      sink,
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleHealth)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/entries", s.handleEntries)
	mux.HandleFunc("GET /api/recent", s.handleRecent)
	mux.HandleFunc("POST /api/bills", s.handleSubmit)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/export", s.handleExportWrite)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	handler := limiter.Wrap(clientIP)(mux)
	handler = trace.NewMiddleware(logger).Wrap(handler)

	srv := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	srv.RegisterOnShutdown(limiter.Stop)
	return srv
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
