package models

import "net/url"

// Location is one named source page processed independently of the others.
type Location struct {
	Slug    string `yaml:"slug" json:"slug"`
	Name    string `yaml:"name" json:"name"`
	URL     string `yaml:"url" json:"url"`
	BaseURL string `yaml:"base_url" json:"baseUrl,omitempty"`
}

// Origin is the scheme and host that relative detail links resolve against.
// An explicit BaseURL wins over the page URL's origin.
func (l Location) Origin() string {
	if l.BaseURL != "" {
		return l.BaseURL
	}
	u, err := url.Parse(l.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
