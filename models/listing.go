package models

import "time"

type ListingType string

const (
	ListingTypeApartment ListingType = "apartment"
	ListingTypeVilla     ListingType = "villa"
	ListingTypeTownhouse ListingType = "townhouse"
	ListingTypeStudio    ListingType = "studio"
)

type ListingStatus string

const (
	StatusAvailable     ListingStatus = "available"
	StatusSold          ListingStatus = "sold"
	StatusReserved      ListingStatus = "reserved"
	StatusComingSoon    ListingStatus = "coming-soon"
	StatusUnderContract ListingStatus = "under-contract"
)

// Image is a listing photo. The first image discovered for a listing is primary.
type Image struct {
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	IsPrimary bool   `json:"isPrimary"`
}

// Feature is a named tag inferred from the listing's text.
type Feature struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Listing is the normalized record produced for every real listing found on
// a location page.
type Listing struct {
	ID             string        `json:"id"`
	PropertyNumber string        `json:"propertyNumber"`
	LocationSlug   string        `json:"locationSlug"`
	ListingType    ListingType   `json:"listingType"`
	Bedrooms       int           `json:"bedrooms"`
	Bathrooms      int           `json:"bathrooms"`
	CarSpaces      int           `json:"carSpaces"`
	Price          int           `json:"price"`
	PriceDisplay   string        `json:"priceDisplay"`
	Status         ListingStatus `json:"status"`
	StatusMessage  string        `json:"statusMessage,omitempty"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Images         []Image       `json:"images"`
	Features       []Feature     `json:"features"`
	SourceURL      string        `json:"sourceUrl"`
	DetailsURL     string        `json:"detailsUrl"`
	PackageURL     string        `json:"packageUrl,omitempty"`
	LastUpdated    time.Time     `json:"lastUpdated"`
}
