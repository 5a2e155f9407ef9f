package auth

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserManager handles Chrome browser automation
type BrowserManager struct {
	headless  bool
	userAgent string
	logger    *zap.Logger
}

// NewBrowserManager creates a new BrowserManager instance
func NewBrowserManager(headless bool, userAgent string, logger *zap.Logger) *BrowserManager {
	return &BrowserManager{headless: headless, userAgent: userAgent, logger: logger}
}

func (bm *BrowserManager) allocatorOptions(userDataDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", bm.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserDataDir(userDataDir),
	)
	if bm.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(bm.userAgent))
	}
	return opts
}

// CreateBrowserContext starts Chrome on a throwaway profile directory. The
// returned cancel func stops the browser and removes the directory; it must
// be called on every path.
func (bm *BrowserManager) CreateBrowserContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	dir, err := os.MkdirTemp("", "ingest-browser-*")
	if err != nil {
		return nil, nil, fmt.Errorf("create browser profile dir: %w", err)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, bm.allocatorOptions(dir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	combinedCancel := func() {
		browserCancel()
		cancel()
		if err := os.RemoveAll(dir); err != nil {
			bm.logger.Warn("remove browser profile dir", zap.String("dir", dir), zap.Error(err))
		}
	}

	if err := chromedp.Run(browserCtx, network.Enable()); err != nil {
		combinedCancel()
		return nil, nil, fmt.Errorf("enable network events: %w", err)
	}

	return browserCtx, combinedCancel, nil
}

// DismissRememberPrompt clicks through the "remember me" interstitial if
// the upstream shows one after login.
func (bm *BrowserManager) DismissRememberPrompt(ctx context.Context) error {
	const selector = `button.btn__secondary--large-muted`
	var exists bool
	if err := chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q) !== null`, selector), &exists).Do(ctx); err != nil {
		return err
	}
	if !exists {
		return nil
	}
	bm.logger.Debug("dismissing remember-me prompt")
	if err := chromedp.Click(selector, chromedp.ByQuery).Do(ctx); err != nil {
		return err
	}
	return chromedp.Sleep(2 * time.Second).Do(ctx)
}

// Cookies reads every cookie the browser holds.
func (bm *BrowserManager) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = convertCookies(raw)
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("read browser cookies: %w", err)
	}
	return cookies, nil
}

// convertCookies maps devtools cookies onto net/http ones. Session cookies
// carry a negative expiry and keep a zero Expires.
func convertCookies(raw []*network.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			hc.Expires = time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
		out = append(out, hc)
	}
	return out
}
