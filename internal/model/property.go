package model

import (
	"strings"
)

// PropertyType is the fixed catalog enumeration of property kinds.
type PropertyType string

const (
	TypeApartment PropertyType = "Apartment"
	TypeVilla     PropertyType = "Villa"
	TypeCottage   PropertyType = "Cottage"
	TypePenthouse PropertyType = "Penthouse"
	TypeStudio    PropertyType = "Studio"
	TypeTownhouse PropertyType = "Townhouse"
)

// PropertyTypes lists every valid PropertyType in display order.
var PropertyTypes = []PropertyType{
	TypeApartment,
	TypeVilla,
	TypeCottage,
	TypePenthouse,
	TypeStudio,
	TypeTownhouse,
}

// IsValid reports whether t is one of the catalog types.
func (t PropertyType) IsValid() bool {
	for _, v := range PropertyTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParsePropertyType normalizes free-form casing ("villa", "VILLAS") to the
// catalog convention. The boolean is false for unknown names.
func ParsePropertyType(s string) (PropertyType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	for _, t := range PropertyTypes {
		name := strings.ToLower(string(t))
		if s == name || s == name+"s" {
			return t, true
		}
	}
	return "", false
}

// ListingStatus tells whether a property is offered for sale or for rent.
type ListingStatus string

const (
	StatusForSale ListingStatus = "For Sale"
	StatusForRent ListingStatus = "For Rent"
)

// ParseListingStatus accepts both the display form ("For Rent") and the
// slug form ("for-rent").
func ParseListingStatus(s string) (ListingStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "for sale", "for-sale", "sale":
		return StatusForSale, true
	case "for rent", "for-rent", "rent":
		return StatusForRent, true
	}
	return "", false
}

// Agent is the listing agent shown on a property.
type Agent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Image string `json:"image"`
}

// Property is a catalog listing. The engine treats it as immutable value data.
type Property struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Price       float64       `json:"price"` // AED
	Location    string        `json:"location"`
	Bedrooms    int           `json:"bedrooms"`
	Bathrooms   int           `json:"bathrooms"`
	Sqft        int           `json:"sqft"`
	YearBuilt   int           `json:"yearBuilt"`
	Description string        `json:"description"`
	Amenities   []string      `json:"amenities"`
	Type        PropertyType  `json:"type"`
	Status      ListingStatus `json:"status"`
	ImageURL    string        `json:"imageUrl"`
	Images      []string      `json:"images"`
	Agent       Agent         `json:"agent"`
}

// PropertyID is the identity projection used by property collections.
func PropertyID(p Property) string {
	return p.ID
}
