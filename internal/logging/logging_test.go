package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5/middleware"
)

func TestMiddlewareAccessLine(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success", status: http.StatusCreated, wantLevel: "info"},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			var buf bytes.Buffer
			log := NewWithWriter(&buf, "info", "json")
			h := middleware.RequestID(Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			r := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
			r.Host = "my-shop.souq.test"
			h.ServeHTTP(httptest.NewRecorder(), r)

			var line map[string]interface{}
			c.Assert(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), qt.IsNil)
			c.Assert(line["level"], qt.Equals, tt.wantLevel)
			c.Assert(line["message"], qt.Equals, "request")
			c.Assert(line["method"], qt.Equals, http.MethodPost)
			c.Assert(line["path"], qt.Equals, "/api/orders")
			c.Assert(line["host"], qt.Equals, "my-shop.souq.test")
			c.Assert(line["status"], qt.Equals, float64(tt.status))
			c.Assert(line["service"], qt.Equals, "souq-api")
			c.Assert(line["request_id"], qt.Not(qt.Equals), nil)
		})
	}
}

func TestNewWithWriterLevel(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")
	c.Assert(strings.Contains(buf.String(), "dropped"), qt.IsFalse)
	c.Assert(strings.Contains(buf.String(), "kept"), qt.IsTrue)

	buf.Reset()
	log = NewWithWriter(&buf, "nonsense", "json")
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	c.Assert(strings.Contains(buf.String(), `"debug"`), qt.IsFalse)
	c.Assert(strings.Contains(buf.String(), `"info"`), qt.IsTrue)
}
