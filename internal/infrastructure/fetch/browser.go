// Package fetch renders case pages in a headless browser and extracts the
// raw transcript text handed to the pipeline.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"CaseMonitor/internal/config"
	"CaseMonitor/internal/ports"
)

// BrowserFetcher retrieves a case page with chromedp, logging in through the
// configured form when the page redirects to the login screen.
type BrowserFetcher struct {
	cfg         config.FetchConfig
	caseBaseURL string
	logger      *slog.Logger
}

var _ ports.CaseSource = (*BrowserFetcher)(nil)

// NewBrowserFetcher wires fetch settings and the case-link base URL.
func NewBrowserFetcher(cfg config.FetchConfig, caseBaseURL string, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{cfg: cfg, caseBaseURL: caseBaseURL, logger: logger}
}

// FetchCaseText renders the page for caseID and returns its visible text;
// when the text extraction yields nothing the raw HTML is returned instead.
func (f *BrowserFetcher) FetchCaseText(ctx context.Context, caseID string) (string, error) {
	url := buildCaseURL(f.caseBaseURL, caseID)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
	)
	if f.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(f.cfg.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, f.cfg.Timeout)
		defer cancel()
	}

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		f.loginIfNeeded(url),
	}
	if f.cfg.SettleWait > 0 {
		tasks = append(tasks, chromedp.Sleep(f.cfg.SettleWait))
	}
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", fmt.Errorf("render case page %s: %w", caseID, err)
	}

	text, err := extractVisibleText(html)
	if err != nil {
		return "", fmt.Errorf("extract text for case %s: %w", caseID, err)
	}
	if strings.TrimSpace(text) == "" {
		f.logger.Info("page text empty, keeping raw html", "case_id", caseID)
		return html, nil
	}

	f.logger.Debug("fetched case page", "case_id", caseID, "chars", len(text))
	return text, nil
}

// loginIfNeeded fills the login form and re-navigates when the case page
// redirected to the configured login URL.
func (f *BrowserFetcher) loginIfNeeded(caseURL string) chromedp.ActionFunc {
	login := f.cfg.Login
	return func(ctx context.Context) error {
		if login.URL == "" || login.Username == "" {
			return nil
		}

		var current string
		if err := chromedp.Location(&current).Do(ctx); err != nil {
			return err
		}
		if !strings.HasPrefix(strings.TrimRight(current, "/"), strings.TrimRight(login.URL, "/")) {
			return nil
		}

		steps := chromedp.Tasks{
			chromedp.SendKeys(login.UsernameSelector, login.Username),
			chromedp.SendKeys(login.PasswordSelector, login.Password),
			chromedp.Click(login.SubmitSelector),
			chromedp.WaitReady("body"),
			chromedp.Navigate(caseURL),
			chromedp.WaitReady("body"),
		}
		return steps.Do(ctx)
	}
}

// extractVisibleText strips markup and script/style noise from the rendered
// document, preserving line structure roughly per block element.
func extractVisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var lines []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		for _, part := range strings.Split(body.Text(), "\n") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	})

	return strings.Join(lines, "\n"), nil
}

func buildCaseURL(base, caseID string) string {
	if strings.Contains(base, "?") || strings.HasSuffix(base, "=") {
		return base + caseID
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + caseID
}
