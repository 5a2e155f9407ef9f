package linkedin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"linkedin-ingest/internal/models"
)

// sessionCookie is the CSRF-bearing cookie every session must carry.
const sessionCookie = "JSESSIONID"

// persistedCookie is the blob representation of one cookie.
type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// EncodeCookies serializes cookies into a session blob.
func EncodeCookies(cookies []*http.Cookie) ([]byte, error) {
	out := make([]persistedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, persistedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}
	return json.Marshal(out)
}

// DecodeCookies parses a session blob. A blob without a JSESSIONID cookie,
// or whose JSESSIONID expired before now, is reported as expired.
func DecodeCookies(blob []byte, now time.Time) ([]*http.Cookie, error) {
	var in []persistedCookie
	if err := json.Unmarshal(blob, &in); err != nil {
		return nil, fmt.Errorf("decode session blob: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(in))
	var session *http.Cookie
	for _, p := range in {
		c := &http.Cookie{
			Name:     p.Name,
			Value:    p.Value,
			Domain:   p.Domain,
			Path:     p.Path,
			Expires:  p.Expires,
			Secure:   p.Secure,
			HttpOnly: p.HttpOnly,
		}
		if c.Name == sessionCookie {
			session = c
		}
		cookies = append(cookies, c)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: blob has no %s cookie", models.ErrSessionExpired, sessionCookie)
	}
	if !session.Expires.IsZero() && session.Expires.Before(now) {
		return nil, fmt.Errorf("%w: %s expired at %s", models.ErrSessionExpired, sessionCookie, session.Expires.Format(time.RFC3339))
	}
	return cookies, nil
}

// cookieJar keeps full cookie attributes so a session can be exported.
// net/http/cookiejar only hands back name and value. The jar serves a single
// upstream site, so cookies are keyed by name alone.
type cookieJar struct {
	mu      sync.Mutex
	cookies map[string]*http.Cookie
	now     func() time.Time
}

func newCookieJar(now func() time.Time, initial []*http.Cookie) *cookieJar {
	j := &cookieJar{cookies: make(map[string]*http.Cookie), now: now}
	j.SetCookies(nil, initial)
	return j
}

func (j *cookieJar) SetCookies(_ *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if c.MaxAge < 0 {
			delete(j.cookies, c.Name)
			continue
		}
		cp := *c
		if c.MaxAge > 0 {
			cp.Expires = j.now().Add(time.Duration(c.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		j.cookies[c.Name] = &cp
	}
}

func (j *cookieJar) Cookies(_ *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.now()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// All returns copies of every stored cookie with attributes.
func (j *cookieJar) All() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// csrfToken is the JSESSIONID value without its surrounding quotes.
func (j *cookieJar) csrfToken() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	if c, ok := j.cookies[sessionCookie]; ok {
		return strings.Trim(c.Value, `"`)
	}
	return ""
}
