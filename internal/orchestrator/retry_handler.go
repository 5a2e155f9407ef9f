package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/models"
)

// RetryHandler runs an upstream call on the current session and, if the
// upstream rejects the session, refreshes it once and retries once.
type RetryHandler struct {
	sessions SessionSource
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRetryHandler creates a new RetryHandler instance. A zero timeout leaves
// calls bounded only by the caller's context.
func NewRetryHandler(sessions SessionSource, timeout time.Duration, logger *zap.Logger) *RetryHandler {
	return &RetryHandler{sessions: sessions, timeout: timeout, logger: logger}
}

// Do runs call for stage. Upstream failures come back as *models.FetchError;
// session errors and caller cancellation are returned unchanged.
func (rh *RetryHandler) Do(ctx context.Context, stage models.Stage, call func(context.Context, linkedin.Client) error) error {
	lease, err := rh.sessions.Client(ctx)
	if err != nil {
		return err
	}

	err = rh.attempt(ctx, lease.Client, call)
	if errors.Is(err, models.ErrSessionExpired) {
		rh.logger.Info("session rejected, refreshing before retry", zap.String("stage", string(stage)))
		lease, err = rh.sessions.Refresh(ctx, lease)
		if err != nil {
			return err
		}
		err = rh.attempt(ctx, lease.Client, call)
	}

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return &models.FetchError{Stage: stage, Err: err}
	}
}

func (rh *RetryHandler) attempt(ctx context.Context, client linkedin.Client, call func(context.Context, linkedin.Client) error) error {
	if rh.timeout <= 0 {
		return call(ctx, client)
	}
	callCtx, cancel := context.WithTimeout(ctx, rh.timeout)
	defer cancel()
	err := call(callCtx, client)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("upstream call exceeded %s: %w", rh.timeout, err)
	}
	return err
}
