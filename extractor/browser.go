package extractor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// BrowserFetcher renders the page in headless Chromium. It is slower than
// HTTPFetcher and only worth it when the plain client is being blocked.
type BrowserFetcher struct {
	timeout time.Duration

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewBrowserFetcher(timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &BrowserFetcher{timeout: timeout}
}

func (f *BrowserFetcher) ensureBrowser() (playwright.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	f.pw = pw
	f.browser = browser
	return browser, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}

	browser, err := f.ensureBrowser()
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Locale:    playwright.String("en-AU"),
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": acceptLanguage,
			"Cache-Control":   "no-cache",
		},
	})
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("failed to create context: %w", err)}
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("failed to create page: %w", err)}
	}

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	if resp != nil && !resp.Ok() {
		return "", &HTTPStatusError{
			URL:        url,
			StatusCode: resp.Status(),
			Status:     fmt.Sprintf("%d %s", resp.Status(), resp.StatusText()),
		}
	}

	html, err := page.Content()
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("read content: %w", err)}
	}
	if len(html) > maxPageBytes {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("%w of %d bytes", ErrPageTooLarge, maxPageBytes)}
	}
	return html, nil
}

func (f *BrowserFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		f.browser.Close()
		f.browser = nil
	}
	if f.pw != nil {
		f.pw.Stop()
		f.pw = nil
	}
}
