package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/pasar/internal/handlers"
)

const requestIDHeader = "X-Request-ID"

// withMiddleware wraps the router; the first wrapper listed runs outermost
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	handler = s.recoveryMiddleware(handler)
	handler = s.corsMiddleware(handler)
	handler = s.accessLogMiddleware(handler)
	return handler
}

// accessLogMiddleware logs one line per API call with the tag or symbol it
// asked about, so slow or failing lookups can be traced to a ticker
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// The mux records the matched pattern and path values on r
		event := s.app.Logger.Debug()
		if rw.statusCode >= http.StatusInternalServerError {
			event = s.app.Logger.Warn()
		}
		event = event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int("bytes", rw.bytes).
			Dur("duration", time.Since(start))
		if r.Pattern != "" {
			event = event.Str("route", r.Pattern)
		}
		if symbol := r.PathValue("symbol"); symbol != "" {
			event = event.Str("symbol", strings.ToUpper(symbol))
		}
		if q := r.URL.Query().Get("q"); q != "" {
			key := "q"
			if strings.HasPrefix(r.URL.Path, "/api/news") {
				key = "tag"
			}
			event = event.Str(key, q)
		}
		event.Msg("API request")
	})
}

// corsMiddleware allows the dashboard to call the API from another origin
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a handler panic into a JSON 500
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.app.Logger.Error().
					Str("error", fmt.Sprintf("%v", err)).
					Str("request_id", w.Header().Get(requestIDHeader)).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				handlers.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// responseWriter captures status and body size for the access log
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// jsonErrorWriter replaces the mux's plain-text 404 and 405 bodies with the
// API's JSON error shape
type jsonErrorWriter struct {
	http.ResponseWriter
	wrote bool
}

func (jw *jsonErrorWriter) WriteHeader(code int) {
	if jw.wrote {
		return
	}
	jw.wrote = true
	jw.Header().Del("X-Content-Type-Options")
	message := "Not found"
	if code == http.StatusMethodNotAllowed {
		message = "Method not allowed"
	}
	handlers.WriteError(jw.ResponseWriter, code, message)
}

func (jw *jsonErrorWriter) Write(b []byte) (int, error) {
	if !jw.wrote {
		jw.WriteHeader(http.StatusNotFound)
	}
	return len(b), nil
}
