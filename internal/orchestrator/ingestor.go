// Package orchestrator runs profile ingestions against the shared session:
// pacing, fetch with retry-after-refresh, document assembly, caching and
// history.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/metrics"
	"linkedin-ingest/internal/models"
	"linkedin-ingest/internal/profile"
	"linkedin-ingest/internal/session"
	"linkedin-ingest/internal/storage"
	"linkedin-ingest/internal/utils"
)

// SessionSource is the part of the session manager ingestion relies on.
type SessionSource interface {
	Client(ctx context.Context) (session.Lease, error)
	Refresh(ctx context.Context, stale session.Lease) (session.Lease, error)
	Pace(ctx context.Context) error
	Noise(ctx context.Context)
	Status() session.Status
	Reinitialize(ctx context.Context) error
}

// Ingestor turns profile ids into ProfileDocuments.
type Ingestor struct {
	sessions SessionSource
	builder  *profile.Builder
	retry    *RetryHandler
	state    *StateManager
	cache    storage.DocumentCache
	history  storage.HistoryStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	maxConcurrency int64
}

// Deps are the Ingestor's collaborators. Cache, History and Metrics may be nil.
type Deps struct {
	Sessions SessionSource
	Builder  *profile.Builder
	Cache    storage.DocumentCache
	History  storage.HistoryStore
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

// New creates an Ingestor.
func New(cfg models.Config, deps Deps) *Ingestor {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	builder := deps.Builder
	if builder == nil {
		builder = profile.NewBuilder(now)
	}
	logger := deps.Logger.Named("ingest")
	return &Ingestor{
		sessions:       deps.Sessions,
		builder:        builder,
		retry:          NewRetryHandler(deps.Sessions, cfg.Session.FetchTimeout, logger),
		state:          NewStateManager(deps.Sessions),
		cache:          deps.Cache,
		history:        deps.History,
		metrics:        deps.Metrics,
		logger:         logger,
		now:            now,
		maxConcurrency: cfg.Ingest.MaxConcurrency,
	}
}

// State exposes suspend/resume and session status.
func (in *Ingestor) State() *StateManager {
	return in.state
}

// Ingest fetches and renders one profile. Errors are *models.FetchError,
// *models.ParseError, *models.SessionInitError (possibly wrapped with
// models.ErrSessionUnavailable), models.ErrSuspended or the caller's
// context error.
func (in *Ingestor) Ingest(ctx context.Context, profileID string) (models.ProfileDocument, error) {
	requestID := uuid.NewString()
	logger := in.logger.With(zap.String("request_id", requestID), zap.String("profile_id", profileID))
	start := in.now()

	doc, cached, err := in.ingest(ctx, logger, profileID)

	elapsed := in.now().Sub(start)
	outcome := outcomeOf(cached, err)
	in.metrics.ObserveIngest(outcome, elapsed)
	in.record(ctx, logger, models.IngestionRecord{
		ID:        requestID,
		ProfileID: profileID,
		Status:    statusOf(cached, err),
		Error:     errorText(err),
		Duration:  elapsed,
		CreatedAt: start,
	})
	if err != nil {
		logger.Warn("ingestion failed", zap.String("outcome", outcome), zap.Error(err))
		return models.ProfileDocument{}, err
	}
	logger.Info("ingestion finished", zap.String("outcome", outcome), zap.String("elapsed", utils.FormatElapsed(elapsed)))
	return doc, nil
}

func (in *Ingestor) ingest(ctx context.Context, logger *zap.Logger, profileID string) (models.ProfileDocument, bool, error) {
	if in.state.Suspended() {
		return models.ProfileDocument{}, false, models.ErrSuspended
	}

	if doc, ok := in.cached(ctx, logger, profileID); ok {
		return doc, true, nil
	}

	if err := in.sessions.Pace(ctx); err != nil {
		return models.ProfileDocument{}, false, err
	}
	var raw models.RawProfile
	err := in.retry.Do(ctx, models.StageProfile, func(ctx context.Context, c linkedin.Client) error {
		var err error
		raw, err = c.FetchProfile(ctx, profileID)
		return err
	})
	if err != nil {
		return models.ProfileDocument{}, false, err
	}
	logger.Debug("got profile data")
	in.sessions.Noise(ctx)

	if err := in.sessions.Pace(ctx); err != nil {
		return models.ProfileDocument{}, false, err
	}
	var posts []models.RawPost
	err = in.retry.Do(ctx, models.StagePosts, func(ctx context.Context, c linkedin.Client) error {
		var err error
		posts, err = c.FetchPosts(ctx, profileID)
		if errors.Is(err, models.ErrNotFound) {
			posts, err = nil, nil
		}
		return err
	})
	if err != nil {
		return models.ProfileDocument{}, false, err
	}
	logger.Debug("got posts data", zap.Int("posts", len(posts)))
	in.sessions.Noise(ctx)

	doc, err := in.builder.BuildProfile(raw)
	if err != nil {
		return models.ProfileDocument{}, false, err
	}
	if doc.Posts, err = in.builder.BuildPosts(raw, posts); err != nil {
		return models.ProfileDocument{}, false, err
	}

	if in.cache != nil {
		if err := in.cache.Set(ctx, profileID, doc); err != nil {
			logger.Warn("cache write failed", zap.Error(err))
		}
	}
	return doc, false, nil
}

func (in *Ingestor) cached(ctx context.Context, logger *zap.Logger, profileID string) (models.ProfileDocument, bool) {
	if in.cache == nil {
		return models.ProfileDocument{}, false
	}
	doc, ok, err := in.cache.Get(ctx, profileID)
	if err != nil {
		logger.Warn("cache read failed", zap.Error(err))
		return models.ProfileDocument{}, false
	}
	if ok {
		logger.Debug("cache hit")
	}
	return doc, ok
}

// record writes history even when the caller has gone away.
func (in *Ingestor) record(ctx context.Context, logger *zap.Logger, rec models.IngestionRecord) {
	if in.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := in.history.Record(ctx, rec); err != nil {
		logger.Warn("record ingestion history", zap.Error(err))
	}
}

func outcomeOf(cached bool, err error) string {
	var (
		fetchErr *models.FetchError
		parseErr *models.ParseError
		initErr  *models.SessionInitError
	)
	switch {
	case err == nil && cached:
		return "cached"
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrSuspended):
		return "suspended"
	case errors.As(err, &fetchErr):
		return "fetch_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	case errors.As(err, &initErr), errors.Is(err, models.ErrSessionUnavailable):
		return "session_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func statusOf(cached bool, err error) models.IngestionStatus {
	switch {
	case err != nil:
		return models.IngestionFailed
	case cached:
		return models.IngestionCached
	default:
		return models.IngestionOK
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
