package linkedin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"linkedin-ingest/internal/models"
)

const (
	voyagerPath   = "/voyager/api"
	postPageSize  = 10
	skillPageSize = 100
)

// profileLists maps RawProfile list keys to their profileView sources.
var profileLists = []struct {
	key  string
	path string
}{
	{"experience", "positionView.elements"},
	{"education", "educationView.elements"},
	{"languages", "languageView.elements"},
	{"publications", "publicationView.elements"},
	{"certifications", "certificationView.elements"},
	{"volunteer", "volunteerExperienceView.elements"},
	{"honors", "honorView.elements"},
	{"projects", "projectView.elements"},
}

// VoyagerClient talks to the upstream's internal JSON API with session cookies
type VoyagerClient struct {
	http    *resty.Client
	jar     *cookieJar
	limiter *rate.Limiter
	logger  *zap.Logger

	// profile urns seen by FetchProfile, keyed by public id
	urns sync.Map
}

var (
	_ Client      = (*VoyagerClient)(nil)
	_ NoiseClient = (*VoyagerClient)(nil)
)

// NewClientFromCookies builds an authenticated client over existing cookies.
func NewClientFromCookies(cfg models.LinkedInConfig, cookies []*http.Cookie, logger *zap.Logger) *VoyagerClient {
	return newVoyagerClient(cfg, newCookieJar(time.Now, cookies), logger)
}

func newVoyagerClient(cfg models.LinkedInConfig, jar *cookieJar, logger *zap.Logger) *VoyagerClient {
	client := newRestyClient(cfg, jar).
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+voyagerPath).
		SetHeader("accept", "application/vnd.linkedin.normalized+json+2.1").
		SetHeader("x-li-lang", "en_US").
		SetHeader("x-restli-protocol-version", "2.0.0")

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if token := jar.csrfToken(); token != "" {
			r.SetHeader("csrf-token", token)
		}
		return nil
	})

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &VoyagerClient{
		http:    client,
		jar:     jar,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.Named("voyager"),
	}
}

func newRestyClient(cfg models.LinkedInConfig, jar http.CookieJar) *resty.Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return resty.New().
		SetTimeout(timeout).
		SetCookieJar(jar).
		SetHeader("user-agent", cfg.UserAgent).
		SetHeader("accept-language", "en-AU,en-GB;q=0.9,en-US;q=0.8,en;q=0.7")
}

// get issues a rate-limited GET and maps upstream status codes to errors.
func (c *VoyagerClient) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("GET %s: %w", path, err)
	}

	c.logger.Debug("upstream response", zap.String("path", path), zap.Int("status", resp.StatusCode()))

	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return gjson.Result{}, fmt.Errorf("GET %s: %w (status %d)", path, models.ErrSessionExpired, code)
	case code == http.StatusNotFound:
		return gjson.Result{}, fmt.Errorf("GET %s: %w", path, models.ErrNotFound)
	default:
		return gjson.Result{}, fmt.Errorf("GET %s: unexpected status %d", path, code)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("GET %s: response is not json", path)
	}
	return gjson.ParseBytes(body), nil
}

// FetchProfile assembles a RawProfile from profileView and the skills list.
func (c *VoyagerClient) FetchProfile(ctx context.Context, publicID string) (models.RawProfile, error) {
	id := url.PathEscape(publicID)
	view, err := c.get(ctx, "/identity/profiles/"+id+"/profileView", nil)
	if err != nil {
		return models.RawProfile{}, err
	}
	profile := view.Get("profile")
	if !profile.IsObject() {
		return models.RawProfile{}, fmt.Errorf("profileView for %s: %w", publicID, models.ErrNotFound)
	}

	out := profile.Raw
	set := func(key, raw string) {
		if err == nil {
			out, err = sjson.SetRaw(out, key, raw)
		}
	}
	if urn := profile.Get("objectUrn"); urn.Exists() {
		set("member_urn", urn.Raw)
	}
	if urn := profile.Get("entityUrn"); urn.Exists() {
		set("profile_urn", urn.Raw)
		c.urns.Store(publicID, urn.String())
	}
	if pid := profile.Get("miniProfile.publicIdentifier"); pid.Exists() {
		set("public_id", pid.Raw)
	}
	for _, l := range profileLists {
		if v := view.Get(l.path); v.IsArray() {
			set(l.key, v.Raw)
		}
	}

	skills, skillErr := c.get(ctx, "/identity/profiles/"+id+"/skills", url.Values{
		"count": {strconv.Itoa(skillPageSize)},
		"start": {"0"},
	})
	switch {
	case skillErr == nil && skills.Get("elements").IsArray():
		set("skills", skills.Get("elements").Raw)
	case errors.Is(skillErr, models.ErrSessionExpired):
		return models.RawProfile{}, skillErr
	default:
		if skillErr != nil {
			c.logger.Warn("skills fetch failed, using profileView skills", zap.Error(skillErr))
		}
		if v := view.Get("skillView.elements"); v.IsArray() {
			set("skills", v.Raw)
		}
	}
	if err != nil {
		return models.RawProfile{}, fmt.Errorf("assemble profile %s: %w", publicID, err)
	}
	return models.NewRawProfile([]byte(out))
}

// FetchPosts returns the most recent entries of the profile's share feed.
// A profile with no activity yields an empty slice.
func (c *VoyagerClient) FetchPosts(ctx context.Context, publicID string) ([]models.RawPost, error) {
	urn, err := c.profileURN(ctx, publicID)
	if err != nil {
		return nil, err
	}
	feed, err := c.get(ctx, "/identity/profileUpdatesV2", url.Values{
		"count":                  {strconv.Itoa(postPageSize)},
		"start":                  {"0"},
		"q":                      {"memberShareFeed"},
		"moduleKey":              {"member-shares:phone"},
		"includeLongTermHistory": {"true"},
		"profileUrn":             {strings.Replace(urn, "fs_profile", "fsd_profile", 1)},
	})
	if err != nil {
		return nil, err
	}
	elements := feed.Get("elements").Array()
	posts := make([]models.RawPost, 0, len(elements))
	for _, e := range elements {
		posts = append(posts, models.RawPostFromResult(e))
	}
	return posts, nil
}

func (c *VoyagerClient) profileURN(ctx context.Context, publicID string) (string, error) {
	if urn, ok := c.urns.Load(publicID); ok {
		return urn.(string), nil
	}
	view, err := c.get(ctx, "/identity/profiles/"+url.PathEscape(publicID)+"/profileView", nil)
	if err != nil {
		return "", err
	}
	urn := view.Get("profile.entityUrn").String()
	if urn == "" {
		return "", fmt.Errorf("profile %s has no entity urn", publicID)
	}
	c.urns.Store(publicID, urn)
	return urn, nil
}

// ProfileViews loads the "who viewed your profile" cards.
func (c *VoyagerClient) ProfileViews(ctx context.Context) error {
	_, err := c.get(ctx, "/identity/wvmpCards", nil)
	return err
}

// Invitations loads a page of received connection invitations.
func (c *VoyagerClient) Invitations(ctx context.Context, start, limit int) error {
	_, err := c.get(ctx, "/relationships/invitationViews", url.Values{
		"start":           {strconv.Itoa(start)},
		"count":           {strconv.Itoa(limit)},
		"includeInsights": {"true"},
		"q":               {"receivedInvitation"},
	})
	return err
}

// Feed loads the first page of the home feed.
func (c *VoyagerClient) Feed(ctx context.Context, limit int) error {
	_, err := c.get(ctx, "/feed/updatesV2", url.Values{
		"count": {strconv.Itoa(limit)},
		"q":     {"chronFeed"},
		"start": {"0"},
	})
	return err
}

// ExportSession serializes the client's cookies.
func (c *VoyagerClient) ExportSession() ([]byte, error) {
	return EncodeCookies(c.jar.All())
}
