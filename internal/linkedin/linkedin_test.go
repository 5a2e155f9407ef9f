package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linkedin-ingest/internal/models"
)

const profileView = `{
	"profile": {"firstName": "Ada", "lastName": "Lovelace", "objectUrn": "urn:li:member:1",
		"entityUrn": "urn:li:fs_profile:abc", "miniProfile": {"publicIdentifier": "ada"}},
	"positionView": {"elements": [{"title": "Engineer"}]},
	"educationView": {"elements": []},
	"skillView": {"elements": [{"name": "Fallback"}]}
}`

// fakeUpstream serves the handful of endpoints the client uses.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/uas/authenticate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: `"ajax:123"`, Path: "/"})
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ajax:123", r.Form.Get("JSESSIONID"))
		switch r.Form.Get("session_key") {
		case "challenged@example.com":
			w.Write([]byte(`{"login_result": "CHALLENGE"}`))
		case "bad@example.com":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			http.SetCookie(w, &http.Cookie{Name: "li_at", Value: "token", Path: "/"})
			w.Write([]byte(`{"login_result": "PASS"}`))
		}
	})
	mux.HandleFunc("/voyager/api/identity/profiles/ada/profileView", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ajax:123", r.Header.Get("csrf-token"))
		w.Write([]byte(profileView))
	})
	mux.HandleFunc("/voyager/api/identity/profiles/ada/skills", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements": [{"name": "Go"}]}`))
	})
	mux.HandleFunc("/voyager/api/identity/profileUpdatesV2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "urn:li:fsd_profile:abc", r.URL.Query().Get("profileUrn"))
		assert.Equal(t, "memberShareFeed", r.URL.Query().Get("q"))
		w.Write([]byte(`{"elements": [{"actor": {"urn": "urn:li:member:1"}}]}`))
	})
	mux.HandleFunc("/voyager/api/identity/wvmpCards", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) models.LinkedInConfig {
	return models.LinkedInConfig{
		BaseURL:        baseURL,
		RequestsPerSec: 1000,
		RequestTimeout: 5 * time.Second,
		UserAgent:      "test",
	}
}

func TestHTTPAuthenticator_Login(t *testing.T) {
	srv := fakeUpstream(t)
	auth := NewHTTPAuthenticator(testConfig(srv.URL), zap.NewNop())
	ctx := context.Background()

	client, err := auth.Login(ctx, models.Account{Username: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	blob, err := client.ExportSession()
	require.NoError(t, err)
	cookies, err := DecodeCookies(blob, time.Now())
	require.NoError(t, err)
	names := map[string]bool{}
	for _, c := range cookies {
		names[c.Name] = true
	}
	assert.True(t, names["JSESSIONID"])
	assert.True(t, names["li_at"])

	_, err = auth.Login(ctx, models.Account{Username: "challenged@example.com", Password: "pw"})
	assert.ErrorIs(t, err, models.ErrChallengeRequired)

	_, err = auth.Login(ctx, models.Account{Username: "bad@example.com", Password: "pw"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrChallengeRequired)
}

func TestVoyagerClient_FetchProfileAndPosts(t *testing.T) {
	srv := fakeUpstream(t)
	client := NewClientFromCookies(testConfig(srv.URL), []*http.Cookie{{Name: "JSESSIONID", Value: `"ajax:123"`}}, zap.NewNop())
	ctx := context.Background()

	raw, err := client.FetchProfile(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", raw.Get("firstName").String())
	assert.Equal(t, "urn:li:member:1", raw.Get("member_urn").String())
	assert.Equal(t, "Engineer", raw.Get("experience.0.title").String())
	assert.Equal(t, "Go", raw.Get("skills.0.name").String())
	assert.False(t, raw.Get("honors").Exists())

	posts, err := client.FetchPosts(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "urn:li:member:1", posts[0].Get("actor.urn").String())
}

func TestVoyagerClient_StatusMapping(t *testing.T) {
	srv := fakeUpstream(t)
	client := NewClientFromCookies(testConfig(srv.URL), nil, zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, client.ProfileViews(ctx), models.ErrSessionExpired)

	_, err := client.FetchProfile(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDecodeCookies(t *testing.T) {
	now := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	fresh, err := EncodeCookies([]*http.Cookie{{Name: "JSESSIONID", Value: "x", Expires: now.Add(time.Hour)}})
	require.NoError(t, err)
	cookies, err := DecodeCookies(fresh, now)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Expires.Equal(now.Add(time.Hour)))

	stale, err := EncodeCookies([]*http.Cookie{{Name: "JSESSIONID", Value: "x", Expires: now.Add(-time.Hour)}})
	require.NoError(t, err)
	_, err = DecodeCookies(stale, now)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	noSession, err := EncodeCookies([]*http.Cookie{{Name: "li_at", Value: "x"}})
	require.NoError(t, err)
	_, err = DecodeCookies(noSession, now)
	assert.ErrorIs(t, err, models.ErrSessionExpired)

	_, err = DecodeCookies([]byte("not json"), now)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrSessionExpired)
}

func TestHTTPAuthenticator_RestoreRejectsStaleBlob(t *testing.T) {
	auth := NewHTTPAuthenticator(testConfig("http://unused"), zap.NewNop())
	blob, err := EncodeCookies([]*http.Cookie{{Name: "JSESSIONID", Value: "x", Expires: time.Now().Add(-time.Minute)}})
	require.NoError(t, err)

	_, err = auth.Restore(context.Background(), models.Account{Username: "u"}, blob)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}
