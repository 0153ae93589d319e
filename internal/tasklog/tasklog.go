package tasklog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/repo"
)

// Multi writes every acknowledgement to all sinks. It fails if any sink
// fails; the returned error combines every sink error.
type Multi []repo.TaskLog

func (m Multi) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	var err error
	for _, s := range m {
		if s == nil {
			continue
		}
		err = multierr.Append(err, s.RecordAcknowledgement(ctx, taskID, user, ackMillis))
	}
	return err
}

// Retry re-attempts a sink with a fixed backoff between attempts.
type Retry struct {
	Next     repo.TaskLog
	Attempts int
	Backoff  time.Duration
	Logger   *zap.Logger
}

func NewRetry(next repo.TaskLog, attempts int, backoff time.Duration, log *zap.Logger) *Retry {
	if attempts < 1 {
		attempts = 1
	}
	return &Retry{Next: next, Attempts: attempts, Backoff: backoff, Logger: log}
}

func (r *Retry) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		err := r.Next.RecordAcknowledgement(ctx, taskID, user, ackMillis)
		if err == nil {
			return nil
		}
		lastErr = err
		r.Logger.Warn("tasklog_attempt_failed",
			zap.String("task_id", taskID),
			zap.Int("attempt", attempt),
			zap.Int("max", r.Attempts),
			zap.Error(err),
		)
		if attempt == r.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed after %d attempts: %w", attempt, multierr.Append(lastErr, ctx.Err()))
		case <-time.After(r.Backoff):
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", r.Attempts, lastErr)
}
