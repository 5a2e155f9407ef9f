package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/models"
)

type fakeClient struct {
	blob     string
	noiseErr error
	noise    atomic.Int32
}

func (c *fakeClient) FetchProfile(context.Context, string) (models.RawProfile, error) {
	return models.RawProfile{}, nil
}

func (c *fakeClient) FetchPosts(context.Context, string) ([]models.RawPost, error) {
	return nil, nil
}

func (c *fakeClient) ExportSession() ([]byte, error) { return []byte(c.blob), nil }

func (c *fakeClient) ProfileViews(context.Context) error {
	c.noise.Add(1)
	return c.noiseErr
}

func (c *fakeClient) Invitations(context.Context, int, int) error {
	c.noise.Add(1)
	return c.noiseErr
}

func (c *fakeClient) Feed(context.Context, int) error {
	c.noise.Add(1)
	return c.noiseErr
}

type fakeAuth struct {
	logins   atomic.Int32
	restores atomic.Int32
	gate     chan struct{}

	mu         sync.Mutex
	loginErr   error
	restoreErr error
}

func (a *fakeAuth) Login(ctx context.Context, _ models.Account) (linkedin.Client, error) {
	n := a.logins.Add(1)
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loginErr != nil {
		return nil, a.loginErr
	}
	return &fakeClient{blob: "login-" + string(rune('0'+n))}, nil
}

func (a *fakeAuth) Restore(_ context.Context, _ models.Account, blob []byte) (linkedin.Client, error) {
	a.restores.Add(1)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.restoreErr != nil {
		return nil, a.restoreErr
	}
	return &fakeClient{blob: string(blob)}, nil
}

func (a *fakeAuth) setLoginErr(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginErr = err
}

type fakeStore struct {
	mu   sync.Mutex
	puts []models.Session
	data map[string]models.Session
}

func newFakeStore() *fakeStore { return &fakeStore{data: map[string]models.Session{}} }

func (s *fakeStore) Get(_ context.Context, id string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.data[id]
	if !ok {
		return models.Session{}, models.ErrNotFound
	}
	return sess, nil
}

func (s *fakeStore) Put(_ context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, sess)
	s.data[sess.CredentialID] = sess
	return nil
}

func (s *fakeStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

var account = models.Account{Username: "agent@example.com", Password: "secret"}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestManager(auth *fakeAuth, store *fakeStore, cfg models.SessionConfig, opts ...Option) *Manager {
	opts = append([]Option{WithSleep(noSleep), WithRandom(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewManager(cfg, account, auth, store, zap.NewNop(), opts...)
}

func TestManager_ConcurrentStartLogsInOnce(t *testing.T) {
	auth := &fakeAuth{gate: make(chan struct{})}
	store := newFakeStore()
	m := newTestManager(auth, store, models.SessionConfig{})

	const callers = 8
	var wg sync.WaitGroup
	leases := make([]Lease, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			leases[i], errs[i] = m.Client(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool { return auth.logins.Load() == 1 }, time.Second, time.Millisecond)
	close(auth.gate)
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Same(t, leases[0].Client, leases[i].Client)
	}
	assert.Equal(t, int32(1), auth.logins.Load())
	assert.Equal(t, 1, store.putCount())
	assert.Equal(t, Active, m.Status().State)

	stored, err := store.Get(context.Background(), account.CredentialID())
	require.NoError(t, err)
	assert.Equal(t, "login-1", string(stored.CookieBlob))
}

func TestManager_RestoresStoredSession(t *testing.T) {
	auth := &fakeAuth{}
	store := newFakeStore()
	require.NoError(t, store.Put(context.Background(), models.Session{CredentialID: account.CredentialID(), CookieBlob: []byte("stored")}))
	m := newTestManager(auth, store, models.SessionConfig{})

	require.NoError(t, m.Start(context.Background()))
	lease, err := m.Client(context.Background())
	require.NoError(t, err)

	blob, err := lease.Client.ExportSession()
	require.NoError(t, err)
	assert.Equal(t, "stored", string(blob))
	assert.Equal(t, int32(0), auth.logins.Load())
	assert.Equal(t, int32(1), auth.restores.Load())
}

func TestManager_ExpiredBlobLogsInAndPersists(t *testing.T) {
	auth := &fakeAuth{restoreErr: models.ErrSessionExpired}
	store := newFakeStore()
	require.NoError(t, store.Put(context.Background(), models.Session{CredentialID: account.CredentialID(), CookieBlob: []byte("stale")}))
	m := newTestManager(auth, store, models.SessionConfig{})

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, int32(1), auth.logins.Load())
	assert.Equal(t, 2, store.putCount())

	stored, err := store.Get(context.Background(), account.CredentialID())
	require.NoError(t, err)
	assert.Equal(t, "login-1", string(stored.CookieBlob))
}

func TestManager_ChallengeFailsPermanently(t *testing.T) {
	auth := &fakeAuth{loginErr: models.ErrChallengeRequired}
	m := newTestManager(auth, newFakeStore(), models.SessionConfig{})

	err := m.Start(context.Background())
	var initErr *models.SessionInitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, models.ErrChallengeRequired)
	assert.Equal(t, Failed, m.Status().State)

	auth.setLoginErr(nil)
	_, err = m.Client(context.Background())
	assert.ErrorIs(t, err, models.ErrSessionUnavailable)
	assert.ErrorIs(t, err, models.ErrChallengeRequired)
	_, err = m.Refresh(context.Background(), Lease{})
	assert.ErrorIs(t, err, models.ErrSessionUnavailable)
	assert.Equal(t, int32(1), auth.logins.Load())

	require.NoError(t, m.Reinitialize(context.Background()))
	assert.Equal(t, Active, m.Status().State)
	assert.Nil(t, m.Status().LastError)
}

func TestManager_OtherLoginErrorFails(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("connection reset")}
	m := newTestManager(auth, newFakeStore(), models.SessionConfig{})

	err := m.Start(context.Background())
	var initErr *models.SessionInitError
	require.ErrorAs(t, err, &initErr)
	assert.NotErrorIs(t, err, models.ErrChallengeRequired)
	assert.Equal(t, Failed, m.Status().State)
}

func TestManager_RefreshReplacesStaleLeaseOnce(t *testing.T) {
	auth := &fakeAuth{}
	store := newFakeStore()
	m := newTestManager(auth, store, models.SessionConfig{})

	first, err := m.Client(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Refresh(context.Background(), first)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), auth.logins.Load())
	current, err := m.Client(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first.Client, current.Client)

	// the stale lease was already replaced, so no further login happens
	_, err = m.Refresh(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, int32(2), auth.logins.Load())
}

func TestManager_CancelledCallerDoesNotAbortLogin(t *testing.T) {
	auth := &fakeAuth{gate: make(chan struct{})}
	m := newTestManager(auth, newFakeStore(), models.SessionConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Client(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return auth.logins.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(auth.gate)
	require.Eventually(t, func() bool { return m.Status().State == Active }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), auth.logins.Load())
}

func TestManager_PaceStaysWithinBounds(t *testing.T) {
	var mu sync.Mutex
	var delays []time.Duration
	record := func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return nil
	}
	cfg := models.SessionConfig{MinDelay: 5 * time.Second, MaxDelay: 15 * time.Second}
	m := newTestManager(&fakeAuth{}, newFakeStore(), cfg, WithSleep(record))

	for i := 0; i < 200; i++ {
		require.NoError(t, m.Pace(context.Background()))
	}
	for _, d := range delays {
		assert.GreaterOrEqual(t, d, cfg.MinDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestManager_PaceHonoursCancellation(t *testing.T) {
	cfg := models.SessionConfig{MinDelay: time.Hour, MaxDelay: time.Hour}
	m := NewManager(cfg, account, &fakeAuth{}, newFakeStore(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Pace(ctx), context.Canceled)
}

func TestManager_NoiseSwallowsFailures(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestManager(auth, newFakeStore(), models.SessionConfig{NoiseProbability: 1})

	lease, err := m.Client(context.Background())
	require.NoError(t, err)
	client := lease.Client.(*fakeClient)
	client.noiseErr = errors.New("rate limited")

	for i := 0; i < 20; i++ {
		m.Noise(context.Background())
	}
	calls := client.noise.Load()
	assert.GreaterOrEqual(t, calls, int32(20))
	assert.LessOrEqual(t, calls, int32(40))
	assert.Equal(t, Active, m.Status().State)
}

func TestManager_NoiseDisabled(t *testing.T) {
	auth := &fakeAuth{}
	m := newTestManager(auth, newFakeStore(), models.SessionConfig{NoiseProbability: 0})

	lease, err := m.Client(context.Background())
	require.NoError(t, err)
	m.Noise(context.Background())
	assert.Zero(t, lease.Client.(*fakeClient).noise.Load())
}
