// Package auth logs in through a real browser for accounts the plain HTTP
// login cannot serve.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"linkedin-ingest/internal/linkedin"
	"linkedin-ingest/internal/models"
)

// URL fragments the upstream redirects to after a login attempt
const (
	challengeMarker = "/checkpoint/challenge"
	feedMarker      = "/feed"
	loginPath       = "/login"
)

// BrowserAuthenticator performs the login form flow in Chrome and hands the
// resulting cookies to a Voyager client. Restoring a stored session needs no
// browser and is delegated to the HTTP authenticator.
type BrowserAuthenticator struct {
	cfg            models.LinkedInConfig
	browserManager *BrowserManager
	restorer       *linkedin.HTTPAuthenticator
	logger         *zap.Logger
}

var _ linkedin.Authenticator = (*BrowserAuthenticator)(nil)

// NewBrowserAuthenticator creates a new BrowserAuthenticator instance
func NewBrowserAuthenticator(cfg models.LinkedInConfig, logger *zap.Logger) *BrowserAuthenticator {
	logger = logger.Named("browser-login")
	return &BrowserAuthenticator{
		cfg:            cfg,
		browserManager: NewBrowserManager(cfg.Headless, cfg.UserAgent, logger),
		restorer:       linkedin.NewHTTPAuthenticator(cfg, logger),
		logger:         logger,
	}
}

// Login fills the login form and waits for the upstream to settle on either
// the feed or a verification challenge.
func (ba *BrowserAuthenticator) Login(ctx context.Context, account models.Account) (linkedin.Client, error) {
	browserCtx, cancel, err := ba.browserManager.CreateBrowserContext(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ba.logger.Info("browser login", zap.String("credential", account.CredentialID()))

	loginURL := strings.TrimSuffix(ba.cfg.BaseURL, "/") + loginPath
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`#username`, chromedp.ByQuery),
		chromedp.SendKeys(`#username`, account.Username, chromedp.ByQuery),
		chromedp.SendKeys(`#password`, account.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("submit login form: %w", err)
	}

	landed, err := ba.waitForLanding(browserCtx)
	if err != nil {
		return nil, err
	}
	if landed == landingChallenge {
		ba.logger.Warn("login requires challenge", zap.String("credential", account.CredentialID()))
		return nil, fmt.Errorf("browser login: %w", models.ErrChallengeRequired)
	}

	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(ba.browserManager.DismissRememberPrompt)); err != nil {
		ba.logger.Debug("remember-me prompt", zap.Error(err))
	}

	cookies, err := ba.browserManager.Cookies(browserCtx)
	if err != nil {
		return nil, err
	}
	ba.logger.Info("browser login succeeded", zap.String("credential", account.CredentialID()), zap.Int("cookies", len(cookies)))
	return linkedin.NewClientFromCookies(ba.cfg, cookies, ba.logger), nil
}

// waitForLanding polls the page location until it leaves the login form.
func (ba *BrowserAuthenticator) waitForLanding(ctx context.Context) (landing, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return landingPending, fmt.Errorf("read page location: %w", err)
		}
		if l := classifyLanding(location); l != landingPending {
			return l, nil
		}
		select {
		case <-ctx.Done():
			return landingPending, fmt.Errorf("waiting for login to complete: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

type landing int

const (
	landingPending landing = iota
	landingFeed
	landingChallenge
)

func classifyLanding(location string) landing {
	switch {
	case strings.Contains(location, challengeMarker):
		return landingChallenge
	case strings.Contains(location, feedMarker):
		return landingFeed
	default:
		return landingPending
	}
}

// Restore builds a client over a stored cookie blob.
func (ba *BrowserAuthenticator) Restore(ctx context.Context, account models.Account, blob []byte) (linkedin.Client, error) {
	return ba.restorer.Restore(ctx, account, blob)
}
