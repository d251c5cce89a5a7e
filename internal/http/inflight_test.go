package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// TestInFlightTracker_Drain verifies shutdown waits for concurrent requests to finish.
func TestInFlightTracker_Drain(t *testing.T) {
	tracker := &InFlightTracker{}
	release := make(chan struct{})
	const requests = 3
	for i := 0; i < requests; i++ {
		tracker.Increment()
		go func() {
			<-release
			tracker.Decrement()
		}()
	}
	if got := tracker.Count(); got != requests {
		t.Fatalf("Count() = %d, want %d", got, requests)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	close(release)
	if err := tracker.WaitForZero(ctx, time.Millisecond); err != nil {
		t.Fatalf("WaitForZero() error = %v", err)
	}
	if got := tracker.Count(); got != 0 {
		t.Errorf("Count() after drain = %d, want 0", got)
	}
}

// TestInFlightTracker_WaitForZero_Deadline verifies a stuck request does not block shutdown
// past the deadline.
func TestInFlightTracker_WaitForZero_Deadline(t *testing.T) {
	tracker := &InFlightTracker{}
	tracker.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tracker.WaitForZero(ctx, 5*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForZero() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

// TestMetricsMiddleware_TracksInFlight verifies a request is counted while its handler runs
// and released afterwards.
func TestMetricsMiddleware_TracksInFlight(t *testing.T) {
	var during int64
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		during = InFlightCount()
		w.WriteHeader(http.StatusNoContent)
	})

	before := InFlightCount()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	if during != before+1 {
		t.Errorf("in-flight during request = %d, want %d", during, before+1)
	}
	if got := InFlightCount(); got != before {
		t.Errorf("in-flight after request = %d, want %d", got, before)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := WaitForInFlight(ctx, time.Millisecond); err != nil {
		t.Errorf("WaitForInFlight() error = %v", err)
	}
}
