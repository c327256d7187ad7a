// Package logging builds the service logger and its HTTP middleware.
package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// New returns the root logger. format "console" gives human readable output,
// anything else emits JSON lines.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "souq-api").Logger()
}

// Middleware attaches the logger to every request context, tags it with the chi
// request id and writes one access line per request. It must run after
// middleware.RequestID.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	attach := hlog.NewHandler(log)
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		evt := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			evt = hlog.FromRequest(r).Error()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("host", r.Host).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
	return func(next http.Handler) http.Handler {
		return attach(withRequestID(access(next)))
	}
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
