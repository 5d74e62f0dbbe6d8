package extractor

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"villagefeed/identity"
	"villagefeed/jsonv"
	"villagefeed/models"
)

// Synonym fragments per target field, tried in order. A key matches a
// fragment when it contains it, ignoring case.
var (
	titleKeys         = []string{"title", "name", "heading", "propertyName", "displayName"}
	priceKeys         = []string{"price", "cost", "amount", "value"}
	descriptionKeys   = []string{"description", "desc", "content", "text", "summary"}
	bedroomKeys       = []string{"bedroom", "bed", "beds", "bedrooms"}
	bathroomKeys      = []string{"bathroom", "bath", "baths", "bathrooms"}
	carKeys           = []string{"car", "parking", "garage", "carSpaces", "parkingSpaces"}
	statusMessageKeys = []string{"statusMessage", "message", "badge", "label"}
	urlKeys           = []string{"url", "href", "link", "detailsUrl", "propertyUrl"}
)

var imageMarkers = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".svg", "image", "photo", "picture"}

type featureRule struct {
	keyword string
	name    string
	icon    string
}

var featureVocabulary = []featureRule{
	{"balcony", "Balcony", "🏞️"},
	{"garden", "Garden", "🌿"},
	{"garage", "Garage", "🚗"},
	{"renovated", "Recently Renovated", "🔨"},
	{"view", "Great Views", "👁️"},
	{"air conditioning", "Air Conditioning", "❄️"},
}

// Normalizer turns candidates into listings.
type Normalizer struct {
	h Heuristics
}

func NewNormalizer(h Heuristics) *Normalizer {
	return &Normalizer{h: h.withDefaults()}
}

// Normalize builds a listing from a candidate with the default heuristics.
// A candidate without a title or price yields nil and no error.
func Normalize(c Candidate, loc models.Location, now time.Time) (*models.Listing, error) {
	return NewNormalizer(DefaultHeuristics()).Normalize(c, loc, now)
}

func (n *Normalizer) Normalize(c Candidate, loc models.Location, now time.Time) (*models.Listing, error) {
	l, _, err := n.normalize(c, loc, now)
	return l, err
}

// normalize reports a gate rejection through reason and real failures,
// including panics, through err.
func (n *Normalizer) normalize(c Candidate, loc models.Location, now time.Time) (l *models.Listing, reason error, err error) {
	defer func() {
		if r := recover(); r != nil {
			l, reason = nil, nil
			err = &CandidateError{Path: c.Path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	data := c.Value
	if !data.IsObject() {
		return nil, nil, &CandidateError{Path: c.Path, Err: fmt.Errorf("candidate is %s, not object", kindOf(data))}
	}

	// Lookups may not descend past the search cutoff.
	budget := n.h.MaxDepth - c.Depth
	if budget < 0 {
		budget = 0
	}

	title, ok := findByKeys(data, titleKeys, budget, textValue)
	if !ok {
		return nil, ErrMissingTitle, nil
	}
	priceText, ok := findByKeys(data, priceKeys, budget, textValue)
	if !ok {
		return nil, ErrMissingPrice, nil
	}

	description, _ := findByKeys(data, descriptionKeys, budget, textValue)
	bedrooms, _ := findByKeys(data, bedroomKeys, budget, countValue)
	bathrooms, _ := findByKeys(data, bathroomKeys, budget, countValue)
	carSpaces, _ := findByKeys(data, carKeys, budget, countValue)
	statusMessage, _ := findByKeys(data, statusMessageKeys, budget, textValue)
	link, _ := findByKeys(data, urlKeys, budget, linkValue)

	detailsURL := loc.URL
	if link != "" {
		detailsURL, err = resolveURL(loc.Origin(), link)
		if err != nil {
			return nil, nil, &CandidateError{Path: c.Path, Err: err}
		}
	}

	text := serializedLower(data)
	price := ParsePrice(priceText)

	return &models.Listing{
		ID:             identity.ListingID(loc.Slug, title, price),
		PropertyNumber: identity.PropertyNumber(title),
		LocationSlug:   loc.Slug,
		ListingType:    InferType(title, text),
		Bedrooms:       bedrooms,
		Bathrooms:      bathrooms,
		CarSpaces:      carSpaces,
		Price:          price,
		PriceDisplay:   priceText,
		Status:         InferStatus(text),
		StatusMessage:  statusMessage,
		Title:          title,
		Description:    description,
		Images:         ExtractImages(data, n.h.MaxImageDepth),
		Features:       ExtractFeatures(text),
		SourceURL:      loc.URL,
		DetailsURL:     detailsURL,
		PackageURL:     detailsURL,
		LastUpdated:    now,
	}, nil, nil
}

// findByKeys searches the object's own keys, synonym by synonym, before
// descending into nested objects. budget limits the descent.
func findByKeys[T any](v *jsonv.Value, keys []string, budget int, transform func(*jsonv.Value) (T, bool)) (T, bool) {
	var zero T
	if !v.IsObject() {
		return zero, false
	}

	for _, key := range keys {
		frag := strings.ToLower(key)
		for _, m := range v.Members {
			if strings.Contains(strings.ToLower(m.Key), frag) {
				if r, ok := transform(m.Value); ok {
					return r, true
				}
			}
		}
	}

	if budget <= 0 {
		return zero, false
	}
	for _, m := range v.Members {
		if m.Value.IsObject() {
			if r, ok := findByKeys(m.Value, keys, budget-1, transform); ok {
				return r, true
			}
		}
	}
	return zero, false
}

func textValue(v *jsonv.Value) (string, bool) {
	if !v.IsString() {
		return "", false
	}
	s := strings.TrimSpace(v.Str)
	return s, s != ""
}

func countValue(v *jsonv.Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case jsonv.Number:
		n, ok := v.Int()
		if !ok {
			return 0, false
		}
		return max(n, 0), true
	case jsonv.String:
		digits := stripNonDigits(v.Str)
		if digits == "" {
			return 0, false
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// linkValue skips image URLs, which otherwise win on keys like "imageUrl".
func linkValue(v *jsonv.Value) (string, bool) {
	s, ok := textValue(v)
	if !ok || isImageURL(s) {
		return "", false
	}
	return s, true
}

func resolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad detail url %q: %w", ref, err)
	}
	if r.IsAbs() || base == "" {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("bad base url %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}

// ParsePrice keeps only the digits of text. No digits means 0.
func ParsePrice(text string) int {
	digits := stripNonDigits(text)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// InferStatus classifies lowercased serialized text. Earlier rules win.
func InferStatus(text string) models.ListingStatus {
	text = strings.ToLower(text)
	switch {
	case strings.Contains(text, "sold"):
		return models.StatusSold
	case strings.Contains(text, "reserved"):
		return models.StatusReserved
	case strings.Contains(text, "under contract"), strings.Contains(text, "undercontract"):
		return models.StatusUnderContract
	case strings.Contains(text, "coming soon"), strings.Contains(text, "comingsoon"):
		return models.StatusComingSoon
	}
	return models.StatusAvailable
}

// InferType picks villa, townhouse or studio when the title or serialized
// text says so, else apartment.
func InferType(title, text string) models.ListingType {
	title = strings.ToLower(title)
	text = strings.ToLower(text)
	for _, t := range []models.ListingType{models.ListingTypeVilla, models.ListingTypeTownhouse, models.ListingTypeStudio} {
		if strings.Contains(title, string(t)) || strings.Contains(text, string(t)) {
			return t
		}
	}
	return models.ListingTypeApartment
}

// ExtractImages collects every string leaf that looks like an image URL, in
// document order. The first is primary.
func ExtractImages(v *jsonv.Value, maxDepth int) []models.Image {
	images := []models.Image{}
	var walk func(node *jsonv.Value, depth int)
	add := func(u string) {
		images = append(images, models.Image{
			URL:       u,
			Alt:       fmt.Sprintf("Property image %d", len(images)+1),
			IsPrimary: len(images) == 0,
		})
	}
	walk = func(node *jsonv.Value, depth int) {
		if node == nil || depth > maxDepth {
			return
		}
		switch node.Kind {
		case jsonv.Array:
			for _, item := range node.Items {
				if item.IsString() {
					if isImageURL(item.Str) {
						add(item.Str)
					}
					continue
				}
				walk(item, depth+1)
			}
		case jsonv.Object:
			for _, m := range node.Members {
				if m.Value.IsString() {
					if isImageURL(m.Value.Str) {
						add(m.Value.Str)
					}
					continue
				}
				walk(m.Value, depth+1)
			}
		}
	}
	walk(v, 0)
	return images
}

func isImageURL(s string) bool {
	if s == "" {
		return false
	}
	return containsAny(strings.ToLower(s), imageMarkers)
}

// ExtractFeatures tags a listing from keywords in its serialized text.
func ExtractFeatures(text string) []models.Feature {
	text = strings.ToLower(text)
	features := []models.Feature{}
	for _, f := range featureVocabulary {
		if strings.Contains(text, f.keyword) {
			features = append(features, models.Feature{Name: f.name, Icon: f.icon})
		}
	}
	return features
}
