package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/solawi/internal/observability"
	"github.com/kjstillabower/solawi/internal/traffic"
)

// TestCorrelationIDMiddleware verifies a client id is echoed, a missing one generated, and
// the request logger carries it.
func TestCorrelationIDMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.New(core)))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		observability.LoggerFromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Correlation-ID"); got != "client-provided-id" {
		t.Errorf("X-Correlation-ID = %q, want client-provided-id", got)
	}
	entries := logs.FilterMessage("handled").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["correlation_id"]; got != "client-provided-id" {
		t.Errorf("logged correlation_id = %v", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if len(w.Header().Get("X-Correlation-ID")) != 36 {
		t.Errorf("generated X-Correlation-ID = %q, want a UUID", w.Header().Get("X-Correlation-ID"))
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		preflight   bool
		wantStatus  int
		wantAllowed string
	}{
		{"any origin echoed", []string{"*"}, http.MethodGet, "https://app.example.org", false, http.StatusOK, "https://app.example.org"},
		{"listed origin", []string{"https://app.example.org/"}, http.MethodGet, "https://app.example.org", false, http.StatusOK, "https://app.example.org"},
		{"foreign origin", []string{"https://app.example.org"}, http.MethodGet, "https://evil.example", false, http.StatusOK, ""},
		{"no origin", []string{"*"}, http.MethodGet, "", false, http.StatusOK, ""},
		{"preflight", []string{"*"}, http.MethodOptions, "https://app.example.org", true, http.StatusNoContent, "https://app.example.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/shares", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			w := httptest.NewRecorder()
			CORSMiddleware(tt.origins)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowed)
			}
			if tt.wantAllowed != "" && w.Header().Get("Access-Control-Allow-Credentials") != "true" {
				t.Error("Allow-Credentials missing")
			}
			if tt.preflight && w.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Error("Allow-Methods missing on preflight")
			}
		})
	}
}

func TestRecoverMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := RecoverMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if logs.FilterMessage("panic serving request").Len() != 1 {
		t.Error("panic not logged")
	}
}

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !ok || time.Until(deadline) > time.Second {
		t.Errorf("deadline = %v (set %v), want within 1s", deadline, ok)
	}

	h = TimeoutMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if ok {
		t.Error("zero timeout must not set a deadline")
	}
}

// TestTrafficMiddleware verifies 5xx responses count as failures and 429 is not counted.
func TestTrafficMiddleware(t *testing.T) {
	traffic.Reset()
	t.Cleanup(traffic.Reset)

	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError, http.StatusTooManyRequests} {
		code := code
		h := TrafficMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	failures, total := traffic.ErrorRate(time.Minute)
	if failures != 1 || total != 3 {
		t.Errorf("ErrorRate() = %d/%d, want 1/3", failures, total)
	}
}

// TestWriteServiceError verifies deadline errors map to 504.
func TestWriteServiceError(t *testing.T) {
	w := httptest.NewRecorder()
	writeServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), context.DeadlineExceeded)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
}
