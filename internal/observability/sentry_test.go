package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInitSentry_DisabledWithoutDSN(t *testing.T) {
	enabled, err := InitSentry(SentryConfig{})
	if err != nil {
		t.Fatalf("InitSentry() error = %v", err)
	}
	if enabled {
		t.Error("InitSentry() enabled = true, want false without DSN")
	}
	// Must not panic without a client.
	CaptureError(context.Background(), errors.New("boom"))
	CaptureError(context.Background(), nil)
}

func TestInitSentry_InvalidDSN(t *testing.T) {
	if _, err := InitSentry(SentryConfig{DSN: "://not-a-dsn"}); err == nil {
		t.Error("InitSentry() expected error for invalid DSN")
	}
}

func TestFlushTelemetry(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	// zap.NewNop().Sync() never fails.
	if err := FlushTelemetry(ctx, zap.NewNop()); err != nil {
		t.Errorf("FlushTelemetry() error = %v", err)
	}
	if err := FlushTelemetry(context.Background(), nil); err != nil {
		t.Errorf("FlushTelemetry(nil logger) error = %v", err)
	}
}
