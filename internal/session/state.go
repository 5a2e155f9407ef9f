package session

import (
	"context"
	"time"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/models"
)

// State is the session manager's lifecycle position.
type State int

const (
	NoSession State = iota
	Authenticating
	Active
	Expired
	Failed
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case Authenticating:
		return "authenticating"
	case Active:
		return "active"
	case Expired:
		return "expired"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store persists session blobs. Get returns models.ErrNotFound when the
// credential has never been stored; otherwise the most recent Put wins.
type Store interface {
	Get(ctx context.Context, credentialID string) (models.Session, error)
	Put(ctx context.Context, s models.Session) error
}

// Random is the randomness source for jitter and noise selection.
// *rand.Rand from math/rand/v2 satisfies it.
type Random interface {
	Float64() float64
	Int64N(n int64) int64
	IntN(n int) int
	Perm(n int) []int
}

// Lease is a client handed out by the manager. The generation lets Refresh
// tell a stale lease from one that was already replaced.
type Lease struct {
	Client     linkedin.Client
	generation uint64
}

// Status is a point-in-time view of the manager.
type Status struct {
	State      State
	Credential string
	ObtainedAt time.Time
	LastError  error
}
