package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"villagefeed/models"
)

var (
	nonAlnumRunRegex    = regexp.MustCompile(`[^a-z0-9]+`)
	multiSpaceRegex     = regexp.MustCompile(`\s+`)
	propertyNumberRegex = regexp.MustCompile(`(?i)(?:apartment|apt|villa|unit)\s*(\d+)`)
)

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single dash, trimming dashes from both ends.
func Slugify(s string) string {
	s = nonAlnumRunRegex.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// ListingID derives the stable listing id from location, title and price.
func ListingID(locationSlug, title string, price int) string {
	return fmt.Sprintf("%s-%s-%d", locationSlug, Slugify(title), price)
}

// PropertyNumber pulls the unit number out of titles like "Apartment 308".
// Titles without one are returned unchanged.
func PropertyNumber(title string) string {
	if m := propertyNumberRegex.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return title
}

// Fingerprint hashes the fields of a listing that matter to a buyer, so two
// syncs can tell whether a listing with the same id has changed.
func Fingerprint(l *models.Listing) string {
	input := fmt.Sprintf("%s|%d|%d|%d|%d|%s|%s|%s",
		l.ID,
		l.Price,
		l.Bedrooms,
		l.Bathrooms,
		l.CarSpaces,
		l.Status,
		string(l.ListingType),
		NormalizeText(l.StatusMessage),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeText folds compatibility forms (NFKC), case and whitespace so
// cosmetic edits to free text do not read as changes.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(norm.NFKC.String(s)))
	return multiSpaceRegex.ReplaceAllString(s, " ")
}
