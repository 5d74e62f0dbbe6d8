package httputil

import (
	"net/http"
	"testing"
	"time"

	"villagefeed/config"
)

func TestNewClients_Proxy(t *testing.T) {
	c := NewClients(config.FetchConfig{ProxyURL: "http://proxy.internal:3128", Timeout: 5 * time.Second})
	tr, ok := c.Scraping.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport")
	}
	req, _ := http.NewRequest(http.MethodGet, "https://www.example.com/", nil)
	u, err := tr.Proxy(req)
	if err != nil || u == nil || u.Host != "proxy.internal:3128" {
		t.Fatalf("expected proxy, got %v %v", u, err)
	}
	if c.Scraping.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", c.Scraping.Timeout)
	}
}

func TestNewClients_NoProxy(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("HTTP_PROXY", "")
	c := NewClients(config.FetchConfig{ProxyURL: "::bad::"})
	if c.Scraping.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", c.Scraping.Timeout)
	}
	if c.API == nil {
		t.Fatalf("expected API client")
	}
}
