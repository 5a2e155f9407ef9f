// Package session owns the single authenticated upstream session: restoring
// it from the store, logging in again when it expires, and pacing the
// traffic that goes through it.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/metrics"
	"linkedin-ingest/internal/models"
)

const flightKey = "session"

// Manager moves through NoSession, Authenticating, Active, Expired and
// Failed. Every transition out of NoSession or Expired runs in a single
// flight, so concurrent callers share one login.
type Manager struct {
	cfg     models.SessionConfig
	account models.Account
	auth    linkedin.Authenticator
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error

	randMu sync.Mutex
	rand   Random

	flight singleflight.Group

	mu         sync.RWMutex
	state      State
	client     linkedin.Client
	generation uint64
	obtainedAt time.Time
	lastErr    error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithRandom replaces the randomness source.
func WithRandom(r Random) Option { return func(m *Manager) { m.rand = r } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithSleep replaces the context-aware sleep used for jitter.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(m *Manager) { m.sleep = sleep }
}

// WithMetrics records logins and noise calls.
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// NewManager creates a manager in the NoSession state. Call Start to
// authenticate eagerly, or let the first Client call do it.
func NewManager(cfg models.SessionConfig, account models.Account, auth linkedin.Authenticator, store Store, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		account: account,
		auth:    auth,
		store:   store,
		logger:  logger.Named("session"),
		now:     time.Now,
		sleep:   sleepContext,
		rand:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		state:   NoSession,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start obtains the initial session. Failure leaves the manager Failed and
// returns a *models.SessionInitError.
func (m *Manager) Start(ctx context.Context) error {
	_, err := m.await(ctx)
	return err
}

// Client returns the active client, authenticating first if needed.
func (m *Manager) Client(ctx context.Context) (Lease, error) {
	m.mu.RLock()
	switch m.state {
	case Active:
		lease := m.leaseLocked()
		m.mu.RUnlock()
		return lease, nil
	case Failed:
		err := m.unavailableLocked()
		m.mu.RUnlock()
		return Lease{}, err
	}
	m.mu.RUnlock()
	return m.await(ctx)
}

// Refresh reports that stale was rejected by the upstream and returns a
// replacement. If another caller already replaced it, no new login happens.
func (m *Manager) Refresh(ctx context.Context, stale Lease) (Lease, error) {
	m.mu.Lock()
	if m.state == Active && m.generation == stale.generation {
		m.logger.Info("session expired, re-authenticating", zap.String("credential", m.account.CredentialID()))
		m.state = Expired
		m.client = nil
	}
	m.mu.Unlock()
	return m.await(ctx)
}

// Login discards the current session, including a Failed one, and performs
// a full credential login.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	m.state = Expired
	m.client = nil
	m.lastErr = nil
	m.mu.Unlock()
	_, err := m.await(ctx)
	return err
}

// Reinitialize rebuilds the session from scratch, restoring from the store
// when possible. It is the way out of Failed.
func (m *Manager) Reinitialize(ctx context.Context) error {
	m.mu.Lock()
	m.state = NoSession
	m.client = nil
	m.lastErr = nil
	m.mu.Unlock()
	return m.Start(ctx)
}

// Status reports the current state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		State:      m.state,
		Credential: m.account.CredentialID(),
		ObtainedAt: m.obtainedAt,
		LastError:  m.lastErr,
	}
}

// await joins the in-flight authentication, starting one if none runs. The
// flight outlives a cancelled caller so the state never stops half way.
func (m *Manager) await(ctx context.Context) (Lease, error) {
	ch := m.flight.DoChan(flightKey, func() (any, error) {
		return m.authenticate(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Lease{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Lease{}, res.Err
		}
		return res.Val.(Lease), nil
	}
}

func (m *Manager) authenticate(ctx context.Context) (Lease, error) {
	m.mu.Lock()
	switch m.state {
	case Active:
		lease := m.leaseLocked()
		m.mu.Unlock()
		return lease, nil
	case Failed:
		err := m.unavailableLocked()
		m.mu.Unlock()
		return Lease{}, err
	}
	restore := m.state == NoSession
	m.state = Authenticating
	m.mu.Unlock()

	client, err := m.acquire(ctx, restore)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		initErr := &models.SessionInitError{Credential: m.account.CredentialID(), Err: err}
		m.state = Failed
		m.client = nil
		m.lastErr = initErr
		m.logger.Error("session unavailable", zap.String("credential", initErr.Credential), zap.Error(err))
		return Lease{}, initErr
	}
	m.client = client
	m.generation++
	m.state = Active
	m.obtainedAt = m.now()
	m.lastErr = nil
	return m.leaseLocked(), nil
}

// acquire restores the stored session when allowed and falls back to a full
// login when there is none or it has expired.
func (m *Manager) acquire(ctx context.Context, restore bool) (linkedin.Client, error) {
	if restore {
		client, err := m.restore(ctx)
		switch {
		case err == nil:
			m.logger.Info("restored stored session", zap.String("credential", m.account.CredentialID()))
			return client, nil
		case errors.Is(err, models.ErrNotFound):
			m.logger.Info("no stored session", zap.String("credential", m.account.CredentialID()))
		case errors.Is(err, models.ErrSessionExpired):
			m.logger.Info("stored session expired", zap.String("credential", m.account.CredentialID()), zap.Error(err))
		default:
			return nil, err
		}
	}
	return m.login(ctx)
}

func (m *Manager) restore(ctx context.Context) (linkedin.Client, error) {
	stored, err := m.store.Get(ctx, m.account.CredentialID())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load stored session: %w", err)
	}
	client, err := m.auth.Restore(ctx, m.account, stored.CookieBlob)
	if err != nil {
		if errors.Is(err, models.ErrSessionExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: unreadable stored session: %v", models.ErrSessionExpired, err)
	}
	return client, nil
}

// login runs a full credential login and persists the fresh blob. A failed
// persist is logged; the new session is still used.
func (m *Manager) login(ctx context.Context) (linkedin.Client, error) {
	if m.cfg.LoginTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.LoginTimeout)
		defer cancel()
	}

	client, err := m.auth.Login(ctx, m.account)
	if err != nil {
		if errors.Is(err, models.ErrChallengeRequired) {
			m.metrics.Login("challenge")
		} else {
			m.metrics.Login("error")
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	m.metrics.Login("ok")

	blob, err := client.ExportSession()
	if err != nil {
		return nil, fmt.Errorf("export session: %w", err)
	}
	err = m.store.Put(ctx, models.Session{
		CredentialID: m.account.CredentialID(),
		CookieBlob:   blob,
		ObtainedAt:   m.now(),
	})
	if err != nil {
		m.logger.Warn("persist session failed", zap.String("credential", m.account.CredentialID()), zap.Error(err))
	} else {
		m.logger.Info("stored new session", zap.String("credential", m.account.CredentialID()))
	}
	return client, nil
}

func (m *Manager) leaseLocked() Lease {
	return Lease{Client: m.client, generation: m.generation}
}

func (m *Manager) unavailableLocked() error {
	if m.lastErr == nil {
		return models.ErrSessionUnavailable
	}
	return fmt.Errorf("%w: %w", models.ErrSessionUnavailable, m.lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
