package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	maxPageBytes        = 20 << 20

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
	acceptLanguage = "en-AU,en;q=0.9,en-US;q=0.8"
)

// Fetcher retrieves the raw HTML of a location page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// NewFetcher picks the page fetcher for a fetch mode. Unknown modes fall back
// to plain HTTP.
func NewFetcher(mode string, client *http.Client, timeout time.Duration) Fetcher {
	switch mode {
	case "browser":
		return NewBrowserFetcher(timeout)
	default:
		return NewHTTPFetcher(client, timeout)
	}
}

// HTTPFetcher issues a plain GET with browser-like headers.
type HTTPFetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

func NewHTTPFetcher(client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{client: client, timeout: timeout, maxBytes: maxPageBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}

	// Accept-Encoding is left to the transport so gzip bodies are decoded.
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &HTTPStatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.maxBytes {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("%w of %d bytes", ErrPageTooLarge, f.maxBytes)}
	}

	return string(body), nil
}
