// Package linkedin is the upstream client: an authenticated Voyager API
// handle, username/password login, and the cookie blob sessions persist as.
package linkedin

import (
	"context"

	"linkedin-ingest/internal/models"
)

// Client is an authenticated upstream handle. Calls return
// models.ErrSessionExpired when the upstream rejects the session.
type Client interface {
	FetchProfile(ctx context.Context, publicID string) (models.RawProfile, error)
	FetchPosts(ctx context.Context, publicID string) ([]models.RawPost, error)
	// ExportSession returns the cookie blob that Restore accepts.
	ExportSession() ([]byte, error)
}

// NoiseClient issues the low-value calls used to pad traffic between fetches.
type NoiseClient interface {
	ProfileViews(ctx context.Context) error
	Invitations(ctx context.Context, start, limit int) error
	Feed(ctx context.Context, limit int) error
}

// Authenticator produces Clients, either by full login or from a stored blob.
type Authenticator interface {
	// Login returns models.ErrChallengeRequired when the upstream demands
	// verification that cannot be completed non-interactively.
	Login(ctx context.Context, account models.Account) (Client, error)
	// Restore returns models.ErrSessionExpired for a stale blob.
	Restore(ctx context.Context, account models.Account, blob []byte) (Client, error)
}
