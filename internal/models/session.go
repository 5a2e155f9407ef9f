package models

import "time"

// Session is a persisted upstream authentication state.
// A newer Session for the same credential replaces the older one.
type Session struct {
	CredentialID string
	CookieBlob   []byte
	ObtainedAt   time.Time
}
