package service

import (
	"strings"
	"time"

	"estateflow/internal/model"
	"estateflow/internal/utils"
)

// Match reason constants
const (
	ReasonBedroomsMatch   = "Bedrooms match"
	ReasonTypeMatch       = "Property type match"
	ReasonLocationMatch   = "Location match"
	ReasonPriceMatch      = "Price within budget"
	ReasonPriceRangeMatch = "Price in selected range"
	ReasonStatusMatch     = "Listing status match"
	ReasonRecentlyBuilt   = "Recently built"
	ReasonGeneralMatch    = "General match"
)

// recentlyBuiltYears is how old a building may be to count as recent.
const recentlyBuiltYears = 2

// MatchReasons explains, in display order, why p satisfied the predicate.
func MatchReasons(p model.Property, pred model.QueryPredicate) []string {
	reasons := []string{}

	if pred.Bedrooms != nil && p.Bedrooms == *pred.Bedrooms {
		reasons = append(reasons, ReasonBedroomsMatch)
	}
	if pred.Type != nil && p.Type == *pred.Type {
		reasons = append(reasons, ReasonTypeMatch)
	}
	if pred.Location != nil && strings.Contains(strings.ToLower(p.Location), strings.ToLower(*pred.Location)) {
		reasons = append(reasons, ReasonLocationMatch)
	}
	if pred.PriceMax != nil && p.Price <= *pred.PriceMax {
		reasons = append(reasons, ReasonPriceMatch)
	}
	if pred.PriceRange != nil && pred.PriceRange.Contains(p.Price) {
		reasons = append(reasons, ReasonPriceRangeMatch)
	}
	if pred.Status != nil && p.Status == *pred.Status {
		reasons = append(reasons, ReasonStatusMatch)
	}
	reasons = append(reasons, amenityReasons(p, pred.Amenities)...)

	if p.YearBuilt > 0 && time.Now().Year()-p.YearBuilt <= recentlyBuiltYears {
		reasons = append(reasons, ReasonRecentlyBuilt)
	}

	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}
	return reasons
}

// amenityReasons names the listing amenities that matched each requested
// term, e.g. "pool" -> "Private Pool".
func amenityReasons(p model.Property, wanted []string) []string {
	var out []string
	for _, term := range wanted {
		for _, a := range p.Amenities {
			if utils.FuzzyMatchAmenity(term, a) {
				out = append(out, "Has "+a)
				break
			}
		}
	}
	return out
}
