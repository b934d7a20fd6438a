package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/avelichko/shelfdrive/internal/server/auth"
)

type ctxKey string

const callerIDKey ctxKey = "callerID"

// withCallerID resolves an optional "Authorization: Bearer <token>" header
// to a caller id and stores it in the request context. An absent or
// invalid token leaves the caller anonymous; handlers that need an
// identity reject those requests themselves.
func (s *Server) withCallerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if userID, err := auth.GetUserIDFromToken(token, s.jwtSecret); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), callerIDKey, userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// callerID extracts the authenticated caller from the request context;
// empty means anonymous.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(callerIDKey).(string)
	return id
}

// requireCaller writes 401 and returns false when the request carries no
// valid identity.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := callerID(r)
	if id == "" {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
		return "", false
	}
	return id, true
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
