package extractor

import (
	"errors"
	"testing"

	"villagefeed/models"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]int{
		"$360,000":           360000,
		"":                   0,
		"Price on request":   0,
		"From $1,250,000.":   1250000,
		"$495k - contact us": 495,
	}
	for in, want := range cases {
		if got := ParsePrice(in); got != want {
			t.Fatalf("ParsePrice(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestInferStatus_Priority(t *testing.T) {
	cases := []struct {
		text string
		want models.ListingStatus
	}{
		{`{"status":"available","badge":"SOLD"}`, models.StatusSold},
		{`{"status":"Reserved"}`, models.StatusReserved},
		{`{"status":"reserved","note":"under contract"}`, models.StatusReserved},
		{`{"status":"Under Contract"}`, models.StatusUnderContract},
		{`{"status":"underContract"}`, models.StatusUnderContract},
		{`{"label":"Coming Soon"}`, models.StatusComingSoon},
		{`{"title":"Apartment 1"}`, models.StatusAvailable},
	}
	for _, c := range cases {
		if got := InferStatus(c.text); got != c.want {
			t.Fatalf("InferStatus(%s) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestInferType(t *testing.T) {
	if got := InferType("Villa 3", ""); got != models.ListingTypeVilla {
		t.Fatalf("expected villa, got %s", got)
	}
	if got := InferType("Residence 3", `{"kind":"Townhouse"}`); got != models.ListingTypeTownhouse {
		t.Fatalf("expected townhouse, got %s", got)
	}
	if got := InferType("Studio 1", ""); got != models.ListingTypeStudio {
		t.Fatalf("expected studio, got %s", got)
	}
	if got := InferType("Apartment 3", `{"floor":2}`); got != models.ListingTypeApartment {
		t.Fatalf("expected apartment default, got %s", got)
	}
}

func candidateFrom(t *testing.T, doc string) Candidate {
	return Candidate{Value: mustParse(t, doc), Path: "test"}
}

func TestNormalize_ValidityGate(t *testing.T) {
	n := NewNormalizer(DefaultHeuristics())

	l, reason, err := n.normalize(candidateFrom(t, `{"name":"Apartment 4","status":"available","beds":2}`), moline, fixedNow)
	if l != nil || err != nil || !errors.Is(reason, ErrMissingPrice) {
		t.Fatalf("expected price rejection, got %v %v %v", l, reason, err)
	}

	l, reason, err = n.normalize(candidateFrom(t, `{"price":"$1","status":"available","beds":2}`), moline, fixedNow)
	if l != nil || err != nil || !errors.Is(reason, ErrMissingTitle) {
		t.Fatalf("expected title rejection, got %v %v %v", l, reason, err)
	}

	l, err = Normalize(candidateFrom(t, `{"title":"   ","price":"$1","beds":2}`), moline, fixedNow)
	if l != nil || err != nil {
		t.Fatalf("blank title should be rejected without error, got %v %v", l, err)
	}

	l, err = Normalize(candidateFrom(t, `{"title":"Apartment 4","price":"  ","beds":2}`), moline, fixedNow)
	if l != nil || err != nil {
		t.Fatalf("blank price should be rejected without error, got %v %v", l, err)
	}
}

func TestNormalize_SynonymsAndNesting(t *testing.T) {
	doc := `{"details":{"heading":"Apartment 17","cost":"$512,500"},"numBeds":"3 bed","bath":2.0,"carSpaces":-1,` +
		`"summary":"Renovated apartment with lake views and air conditioning","photos":["/media/apt-17.png","/media/floorplan.pdf"]}`
	l, err := Normalize(candidateFrom(t, doc), moline, fixedNow)
	if err != nil || l == nil {
		t.Fatalf("expected listing, got %v %v", l, err)
	}
	if l.Title != "Apartment 17" || l.Price != 512500 || l.PriceDisplay != "$512,500" {
		t.Fatalf("unexpected title/price %s %d %s", l.Title, l.Price, l.PriceDisplay)
	}
	if l.Bedrooms != 3 || l.Bathrooms != 2 || l.CarSpaces != 0 {
		t.Fatalf("unexpected counts %d/%d/%d", l.Bedrooms, l.Bathrooms, l.CarSpaces)
	}
	if l.Description != "Renovated apartment with lake views and air conditioning" {
		t.Fatalf("unexpected description %s", l.Description)
	}
	if len(l.Images) != 1 || l.Images[0].URL != "/media/apt-17.png" {
		t.Fatalf("unexpected images %+v", l.Images)
	}
	names := map[string]bool{}
	for _, f := range l.Features {
		names[f.Name] = true
	}
	for _, want := range []string{"Recently Renovated", "Great Views", "Air Conditioning"} {
		if !names[want] {
			t.Fatalf("missing feature %s in %+v", want, l.Features)
		}
	}
	if names["Balcony"] {
		t.Fatalf("unexpected Balcony feature")
	}
}

func TestNormalize_PriceMustBeText(t *testing.T) {
	for _, doc := range []string{
		`{"title":"Villa 2","price":790000,"bedrooms":2}`,
		`{"title":"Apartment 9","totalValue":3,"status":"available","type":"apartment"}`,
		`{"title":"Apartment 9","price":"   "}`,
	} {
		l, err := Normalize(candidateFrom(t, doc), moline, fixedNow)
		if err != nil || l != nil {
			t.Fatalf("%s: expected no listing, got %+v %v", doc, l, err)
		}
	}
}

func TestNormalize_MissingDescriptionIsEmpty(t *testing.T) {
	l, err := Normalize(candidateFrom(t, `{"title":"Villa 2","price":"$790,000","bedrooms":2}`), moline, fixedNow)
	if err != nil || l == nil {
		t.Fatalf("expected listing, got %v %v", l, err)
	}
	if l.Price != 790000 || l.PriceDisplay != "$790,000" {
		t.Fatalf("unexpected price %d %s", l.Price, l.PriceDisplay)
	}
	if l.Description != "" {
		t.Fatalf("expected empty description, got %s", l.Description)
	}
}

func TestNormalize_LinkSkipsImagesAndResolves(t *testing.T) {
	doc := `{"title":"Apartment 5","price":"$1","imageUrl":"https://cdn.example.com/5.jpg","url":"https://other.example.com/apt-5"}`
	l, err := Normalize(candidateFrom(t, doc), moline, fixedNow)
	if err != nil || l == nil {
		t.Fatalf("expected listing, got %v %v", l, err)
	}
	if l.DetailsURL != "https://other.example.com/apt-5" {
		t.Fatalf("expected absolute link kept, got %s", l.DetailsURL)
	}

	loc := moline
	loc.BaseURL = "https://mirror.example.com"
	l, _ = Normalize(candidateFrom(t, `{"title":"Apartment 5","price":"$1","href":"/p/5"}`), loc, fixedNow)
	if l.DetailsURL != "https://mirror.example.com/p/5" {
		t.Fatalf("expected base url override, got %s", l.DetailsURL)
	}
}

func TestNormalize_BadLinkIsCandidateError(t *testing.T) {
	_, err := Normalize(candidateFrom(t, `{"title":"Apartment 5","price":"$1","link":"%zz"}`), moline, fixedNow)
	var cerr *CandidateError
	if !errors.As(err, &cerr) || cerr.Path != "test" {
		t.Fatalf("expected CandidateError, got %v", err)
	}
}

func TestNormalize_LookupRespectsDepthCutoff(t *testing.T) {
	c := candidateFrom(t, `{"a":{"b":{"title":"Apartment 5"}},"price":"$1","status":"sold"}`)
	c.Depth = DefaultHeuristics().MaxDepth - 1
	l, reason, _ := NewNormalizer(DefaultHeuristics()).normalize(c, moline, fixedNow)
	if l != nil || !errors.Is(reason, ErrMissingTitle) {
		t.Fatalf("expected title beyond cutoff to be unreachable, got %v %v", l, reason)
	}

	c.Depth = 0
	if l, _ := Normalize(c, moline, fixedNow); l == nil || l.Title != "Apartment 5" {
		t.Fatalf("expected nested title within cutoff, got %v", l)
	}
}

func TestExtractImages_DepthAndOrder(t *testing.T) {
	v := mustParse(t, `{"hero":"a.jpg","gallery":[{"src":"b.webp"},"c.png"],"deep":{"x":{"y":{"z":{"w":{"v":{"u":"too-deep.jpg"}}}}}}}`)
	images := ExtractImages(v, 5)
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %+v", images)
	}
	if images[0].URL != "a.jpg" || !images[0].IsPrimary || images[0].Alt != "Property image 1" {
		t.Fatalf("unexpected primary image %+v", images[0])
	}
	if images[1].URL != "b.webp" || images[2].URL != "c.png" || images[1].IsPrimary {
		t.Fatalf("unexpected image order %+v", images)
	}
}
