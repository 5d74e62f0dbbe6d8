package httputil

import (
	"net/http"
	"net/url"
	"time"

	"villagefeed/config"
)

type Clients struct {
	Scraping *http.Client // optionally proxied, for location pages
	API      *http.Client // direct, for cache backends reached over HTTP
}

// NewClients builds the shared clients. A bad proxy URL is ignored and the
// scraping client goes direct.
func NewClients(cfg config.FetchConfig) *Clients {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil && proxyURL.Host != "" {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		API: &http.Client{Timeout: 30 * time.Second},
	}
}
