// Package httpapi is the routing layer over the record service. It parses
// requests, resolves the caller identity from a bearer token, invokes the
// service, and maps typed errors onto HTTP status codes. No business rule
// lives here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avelichko/shelfdrive/internal/logging"
	"github.com/avelichko/shelfdrive/internal/server/blob"
	"github.com/avelichko/shelfdrive/internal/server/services"
)

// Server exposes the REST endpoints consumed by the web client.
type Server struct {
	addr      string
	logger    logging.Logger
	records   *services.RecordService
	uploader  blob.Uploader
	jwtSecret []byte
	server    *http.Server
}

// NewServer constructs the HTTP server around the record service.
func NewServer(addr string, l logging.Logger, rs *services.RecordService, up blob.Uploader, secretKey string) *Server {
	return &Server{
		addr:      addr,
		logger:    l.With("module", "httpapi"),
		records:   rs,
		uploader:  up,
		jwtSecret: []byte(secretKey),
	}
}

// Handler builds the route table. Literal segments win over the {id}
// wildcard, so the named views stay reachable.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/files/public", s.handleView(services.ViewPublic))
	mux.HandleFunc("GET /api/files/my-files", s.handleView(services.ViewMyFiles))
	mux.HandleFunc("GET /api/files/starred", s.handleView(services.ViewStarred))
	mux.HandleFunc("GET /api/files/recent", s.handleView(services.ViewRecent))
	mux.HandleFunc("GET /api/files/recycle-bin", s.handleView(services.ViewTrash))

	mux.HandleFunc("POST /api/files", s.handleCreate)
	mux.HandleFunc("GET /api/files/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/files/{id}", s.handleUpdate)
	mux.HandleFunc("PATCH /api/files/{id}/star", s.handleToggleStar)
	mux.HandleFunc("PUT /api/files/{id}/restore", s.handleRestore)
	mux.HandleFunc("DELETE /api/files/{id}", s.handleTrash)
	mux.HandleFunc("DELETE /api/files/{id}/permanent", s.handlePurge)

	return s.withCallerID(corsMiddleware(s.loggingMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
