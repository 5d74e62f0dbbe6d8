package extractor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"villagefeed/identity"
	"villagefeed/models"
)

const (
	cardSelector  = `div[class*="styles_cardItem__"]`
	priceSelector = `span[class*="styles_price__"]`
)

// iconSignature identifies the svg next to a count by its viewBox and a
// marker in its markup.
type iconSignature struct {
	viewBox string
	marker  string
}

var (
	bedIcon  = iconSignature{viewBox: "0 0 22 17", marker: "icon - bed"}
	bathIcon = iconSignature{viewBox: "0 0 25 21", marker: "icon - bathtub"}
	carIcon  = iconSignature{viewBox: "0 0 30 22", marker: "car"}
)

// ParseFromHTML reads listing cards out of rendered page markup. Cards
// without a title or price are skipped; a broken card never fails the page.
func ParseFromHTML(html string, loc models.Location, now time.Time) ([]models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	listings := []models.Listing{}
	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		if l := parseCard(card, loc, now); l != nil {
			listings = append(listings, *l)
		}
	})
	return listings, nil
}

func parseCard(card *goquery.Selection, loc models.Location, now time.Time) (l *models.Listing) {
	defer func() {
		if r := recover(); r != nil {
			l = nil
		}
	}()

	title := strings.TrimSpace(card.Find("h3 a").First().Text())
	priceDisplay := strings.TrimSpace(card.Find(priceSelector).First().Text())
	if title == "" || priceDisplay == "" {
		return nil
	}

	price := ParsePrice(priceDisplay)
	href, _ := card.Find("a[href]").First().Attr("href")
	imageURL, _ := card.Find("img[src]").First().Attr("src")

	sourceURL := loc.URL
	detailsURL := loc.URL
	if href != "" {
		resolved, err := resolveURL(loc.Origin(), href)
		if err != nil {
			return nil
		}
		sourceURL = resolved
		detailsURL = resolved
	}

	images := []models.Image{}
	if imageURL != "" {
		images = append(images, models.Image{URL: imageURL, Alt: title, IsPrimary: true})
	}

	return &models.Listing{
		ID:             identity.ListingID(loc.Slug, title, price),
		PropertyNumber: identity.PropertyNumber(title),
		LocationSlug:   loc.Slug,
		ListingType:    InferType(title, title),
		Bedrooms:       iconCount(card, bedIcon),
		Bathrooms:      iconCount(card, bathIcon),
		CarSpaces:      iconCount(card, carIcon),
		Price:          price,
		PriceDisplay:   priceDisplay,
		Status:         InferStatus(card.Text()),
		Title:          title,
		Description:    title,
		Images:         images,
		Features:       []models.Feature{},
		SourceURL:      sourceURL,
		DetailsURL:     detailsURL,
		PackageURL:     detailsURL,
		LastUpdated:    now,
	}
}

// iconCount reads the number in the span immediately before the first svg
// matching sig.
func iconCount(card *goquery.Selection, sig iconSignature) int {
	count := 0
	card.Find("svg").EachWithBreak(func(_ int, svg *goquery.Selection) bool {
		viewBox, ok := svg.Attr("viewBox")
		if !ok {
			viewBox, _ = svg.Attr("viewbox")
		}
		if viewBox != sig.viewBox {
			return true
		}
		markup, err := goquery.OuterHtml(svg)
		if err != nil || !strings.Contains(strings.ToLower(markup), sig.marker) {
			return true
		}
		prev := svg.Prev()
		if !prev.Is("span") {
			return true
		}
		n, err := strconv.Atoi(strings.TrimSpace(prev.Text()))
		if err != nil || n < 0 {
			return true
		}
		count = n
		return false
	})
	return count
}
