package extractor

import (
	"regexp"
	"strings"

	"villagefeed/jsonv"
)

var nextDataRegex = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)

// LocateNextData returns the text of the first __NEXT_DATA__ script block.
func LocateNextData(html string) (string, error) {
	m := nextDataRegex.FindStringSubmatch(html)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return "", ErrNextDataNotFound
	}
	return m[1], nil
}

// ParseNextData decodes the located payload.
func ParseNextData(text string) (*jsonv.Value, error) {
	v, err := jsonv.ParseString(text)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return v, nil
}
