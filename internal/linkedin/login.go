package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"linkedin-ingest/internal/models"
)

const authenticatePath = "/uas/authenticate"

// Login results reported by the authenticate endpoint
const (
	loginPass      = "PASS"
	loginChallenge = "CHALLENGE"
)

// HTTPAuthenticator logs in through the upstream's username/password endpoint
type HTTPAuthenticator struct {
	cfg    models.LinkedInConfig
	logger *zap.Logger
	now    func() time.Time
}

var _ Authenticator = (*HTTPAuthenticator)(nil)

// NewHTTPAuthenticator creates an authenticator for cfg.BaseURL.
func NewHTTPAuthenticator(cfg models.LinkedInConfig, logger *zap.Logger) *HTTPAuthenticator {
	return &HTTPAuthenticator{cfg: cfg, logger: logger.Named("login"), now: time.Now}
}

// Login performs a full credential login and returns a client holding the
// fresh cookies.
func (a *HTTPAuthenticator) Login(ctx context.Context, account models.Account) (Client, error) {
	jar := newCookieJar(a.now, nil)
	client := newRestyClient(a.cfg, jar).
		SetBaseURL(strings.TrimSuffix(a.cfg.BaseURL, "/")).
		SetHeader("x-li-user-agent", "LIAuthLibrary:3.2.4 com.linkedin.LinkedIn:8.8.1 iPhone:8.3").
		SetHeader("x-user-language", "en").
		SetHeader("x-user-locale", "en_US")

	// seeds JSESSIONID
	resp, err := client.R().SetContext(ctx).Get(authenticatePath)
	if err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	token := jar.csrfToken()
	if token == "" {
		return nil, fmt.Errorf("seed session: no %s cookie (status %d)", sessionCookie, resp.StatusCode())
	}

	resp, err = client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"session_key":      account.Username,
			"session_password": account.Password,
			"JSESSIONID":       token,
		}).
		Post(authenticatePath)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, fmt.Errorf("authenticate: credentials rejected")
	}

	result := gjson.GetBytes(resp.Body(), "login_result").String()
	switch result {
	case loginPass:
		a.logger.Info("login succeeded", zap.String("credential", account.CredentialID()))
		return newVoyagerClient(a.cfg, jar, a.logger), nil
	case loginChallenge:
		a.logger.Warn("login requires challenge", zap.String("credential", account.CredentialID()))
		return nil, fmt.Errorf("authenticate: %w", models.ErrChallengeRequired)
	default:
		return nil, fmt.Errorf("authenticate: unexpected login result %q (status %d)", result, resp.StatusCode())
	}
}

// Restore builds a client over a stored cookie blob without contacting the
// upstream. A stale blob fails with models.ErrSessionExpired.
func (a *HTTPAuthenticator) Restore(_ context.Context, _ models.Account, blob []byte) (Client, error) {
	cookies, err := DecodeCookies(blob, a.now())
	if err != nil {
		return nil, err
	}
	return newVoyagerClient(a.cfg, newCookieJar(a.now, cookies), a.logger), nil
}
