package service

import (
	"strings"

	"estateflow/internal/model"
	"estateflow/internal/utils"
)

// Filter returns the catalog entries that satisfy every set field of p, in
// catalog order. An empty predicate returns catalog itself.
//
// Type is compared exactly; callers normalize casing with
// model.ParsePropertyType first.
func Filter(catalog []model.Property, p model.QueryPredicate) []model.Property {
	if p.IsEmpty() {
		return catalog
	}

	var location string
	if p.Location != nil {
		location = strings.ToLower(*p.Location)
	}

	out := make([]model.Property, 0, len(catalog))
	for _, prop := range catalog {
		if p.Location != nil && !strings.Contains(strings.ToLower(prop.Location), location) {
			continue
		}
		if p.Type != nil && prop.Type != *p.Type {
			continue
		}
		if p.Bedrooms != nil && prop.Bedrooms != *p.Bedrooms {
			continue
		}
		if p.PriceMax != nil && prop.Price > *p.PriceMax {
			continue
		}
		if p.PriceRange != nil && !p.PriceRange.Contains(prop.Price) {
			continue
		}
		if p.Status != nil && prop.Status != *p.Status {
			continue
		}
		if !hasAllAmenities(prop, p.Amenities) {
			continue
		}
		out = append(out, prop)
	}
	return out
}

func hasAllAmenities(prop model.Property, wanted []string) bool {
	for _, term := range wanted {
		if !utils.HasAmenity(prop.Amenities, term) {
			return false
		}
	}
	return true
}
