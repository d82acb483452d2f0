package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/catering/internal/domain"
)

type ctxKey int

const identityKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}

// Logging writes one access line per request and echoes the request id set
// by middleware.RequestID back to the client.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := requestIDFrom(r.Context())
		if reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("latency", time.Since(start)).
			Str("request_id", reqID).
			Str("user", identityFrom(r.Context()).Name).
			Msg("http")
	})
}

// loadIdentity attaches the session identity, or the anonymous one, to the
// request context.
func (s *Server) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.sessions.Read(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

func identityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey).(domain.Identity)
	return id
}

// requireIdentity sends anonymous visitors to the login page and brings them
// back afterwards.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFrom(r.Context()).Authenticated() {
			http.Redirect(w, r, "/login?returnURL="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
