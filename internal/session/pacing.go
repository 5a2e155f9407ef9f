package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"linkedin-ingest/internal/linkedin"
)

// noiseCalls are the decoy requests Noise picks from.
var noiseCalls = []struct {
	name string
	do   func(context.Context, linkedin.NoiseClient) error
}{
	{"profile_views", func(ctx context.Context, c linkedin.NoiseClient) error { return c.ProfileViews(ctx) }},
	{"invitations", func(ctx context.Context, c linkedin.NoiseClient) error { return c.Invitations(ctx, 0, 3) }},
	{"feed", func(ctx context.Context, c linkedin.NoiseClient) error { return c.Feed(ctx, 10) }},
}

// Pace sleeps a uniformly random delay within the configured bounds. Only
// the calling request waits. Returns ctx.Err() if cancelled first.
func (m *Manager) Pace(ctx context.Context) error {
	return m.sleep(ctx, m.jitter())
}

func (m *Manager) jitter() time.Duration {
	lo, hi := m.cfg.MinDelay, m.cfg.MaxDelay
	if hi <= lo {
		return lo
	}
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return lo + time.Duration(m.rand.Int64N(int64(hi-lo)+1))
}

// Noise, with the configured probability, issues one or two distinct decoy
// calls through the active client, each after its own delay. Failures are
// logged and dropped.
func (m *Manager) Noise(ctx context.Context) {
	p := m.cfg.NoiseProbability
	if p <= 0 {
		return
	}

	m.randMu.Lock()
	roll := m.rand.Float64()
	order := m.rand.Perm(len(noiseCalls))
	n := 1 + m.rand.IntN(2)
	m.randMu.Unlock()
	if roll >= p {
		return
	}

	m.mu.RLock()
	nc, ok := m.client.(linkedin.NoiseClient)
	m.mu.RUnlock()
	if !ok {
		return
	}

	for _, i := range order[:n] {
		if err := m.Pace(ctx); err != nil {
			return
		}
		call := noiseCalls[i]
		err := call.do(ctx, nc)
		m.metrics.Noise(err)
		if err != nil {
			m.logger.Warn("noise request failed", zap.String("call", call.name), zap.Error(err))
			continue
		}
		m.logger.Debug("noise request", zap.String("call", call.name))
	}
}
