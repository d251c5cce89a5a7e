package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// FlushTelemetry flushes telemetry buffers before process exit: queued Sentry events
// first, then logs. Call during graceful shutdown after in-flight requests have drained.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	timeout := SentryFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if sentry.CurrentHub().Client() != nil && !sentry.Flush(timeout) {
		if logger != nil {
			logger.Warn("sentry flush timed out")
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("flush logs: %w", err)
		}
	}
	return nil
}
