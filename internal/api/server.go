package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/corvidlabs/crawlerd/internal/platform/httpclient"
)

// Server is the HTTP control surface: one process, many concurrent
// scans, each running under its own Controller registered in registry.
type Server struct {
	cfg      ServerConfig
	registry *Registry
	http     *http.Server
}

// NewServer builds a Server and wires its routes. It does not start
// listening; call Start for that.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		cfg:      cfg,
		registry: NewRegistry(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scan", s.handleScan)
	mux.HandleFunc("POST /api/scan/{scan_id}/control", s.handleControl)
	mux.HandleFunc("GET /api/scan/{scan_id}/progress", s.handleProgress)
	mux.HandleFunc("GET /api/scan/status", s.handleStatus)

	s.http = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      logRequests(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called from another goroutine.
func (s *Server) Start() error {
	log.Printf("crawlerd listening on %s", s.cfg.Addr())
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured grace
// period, in the teacher's signal-handling idiom.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// newFetcher builds the shared HTTP fetcher every scan's workers use.
// One Client instance is reused across a scan's whole worker pool: its
// timeout, body-size cap and pre-fetch delay are scan-wide, not
// per-worker. No rate limit is configured.
func newFetcher(perRequestTimeout time.Duration) *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout: perRequestTimeout,
	})
}
