package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"linkedin-ingest/internal/models"
)

// MemorySessionStore keeps sessions for the life of the process.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Session
}

// NewMemorySessionStore creates an empty store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]models.Session)}
}

// Get returns the last session Put for credentialID.
func (m *MemorySessionStore) Get(_ context.Context, credentialID string) (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.sessions[credentialID]
	if len(log) == 0 {
		return models.Session{}, fmt.Errorf("session for %s: %w", credentialID, models.ErrNotFound)
	}
	s := log[len(log)-1]
	s.CookieBlob = append([]byte(nil), s.CookieBlob...)
	return s, nil
}

// Put appends s to its credential's log.
func (m *MemorySessionStore) Put(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CookieBlob = append([]byte(nil), s.CookieBlob...)
	m.sessions[s.CredentialID] = append(m.sessions[s.CredentialID], s)
	return nil
}

// MemoryHistory keeps ingestion records in process memory.
type MemoryHistory struct {
	mu      sync.Mutex
	records []models.IngestionRecord
}

// NewMemoryHistory creates an empty history
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Record appends rec.
func (h *MemoryHistory) Record(_ context.Context, rec models.IngestionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

// Recent returns up to limit records for profileID, newest first. Records
// with equal timestamps come back in reverse insertion order.
func (h *MemoryHistory) Recent(_ context.Context, profileID string, limit int) ([]models.IngestionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.IngestionRecord
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].ProfileID == profileID {
			out = append(out, h.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
