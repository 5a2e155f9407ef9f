package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkedin-ingest/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository_MostRecentWins(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "agent@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)

	first := time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Put(ctx, models.Session{CredentialID: "agent@example.com", CookieBlob: []byte("one"), ObtainedAt: first}))
	require.NoError(t, repo.Put(ctx, models.Session{CredentialID: "agent@example.com", CookieBlob: []byte("two"), ObtainedAt: first.Add(time.Hour)}))
	require.NoError(t, repo.Put(ctx, models.Session{CredentialID: "other@example.com", CookieBlob: []byte("other"), ObtainedAt: first}))

	got, err := repo.Get(ctx, "agent@example.com")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got.CookieBlob))
	assert.True(t, got.ObtainedAt.Equal(first.Add(time.Hour)))
}

func TestSessionRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, NewSessionRepository(db).Put(ctx, models.Session{CredentialID: "a", CookieBlob: []byte("blob"), ObtainedAt: time.Now()}))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewSessionRepository(db).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "blob", string(got.CookieBlob))
}

func TestIngestionRepository_RecordAndRecent(t *testing.T) {
	repo := NewIngestionRepository(openTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC)

	for i, status := range []models.IngestionStatus{models.IngestionOK, models.IngestionFailed, models.IngestionCached} {
		rec := models.IngestionRecord{
			ID:        uuid.NewString(),
			ProfileID: "ada",
			Status:    status,
			Duration:  time.Duration(i+1) * time.Second,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if status == models.IngestionFailed {
			rec.Error = "fetch profile: boom"
		}
		require.NoError(t, repo.Record(ctx, rec))
	}

	records, err := repo.Recent(ctx, "ada", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.IngestionCached, records[0].Status)
	assert.Equal(t, 3*time.Second, records[0].Duration)
	assert.Empty(t, records[0].Error)
	assert.Equal(t, models.IngestionFailed, records[1].Status)
	assert.Equal(t, "fetch profile: boom", records[1].Error)

	none, err := repo.Recent(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
