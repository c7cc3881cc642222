package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPriceRange is returned by ParsePriceRange for malformed input.
var ErrInvalidPriceRange = errors.New("invalid price range")

// PriceRange is an inclusive price interval. A nil Max means unbounded above.
type PriceRange struct {
	Min float64  `json:"min"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether price lies inside the interval.
func (r PriceRange) Contains(price float64) bool {
	if price < r.Min {
		return false
	}
	return r.Max == nil || price <= *r.Max
}

// String renders the range in the form accepted by ParsePriceRange.
func (r PriceRange) String() string {
	min := strconv.FormatFloat(r.Min, 'f', -1, 64)
	if r.Max == nil {
		return min + "-plus"
	}
	return min + "-" + strconv.FormatFloat(*r.Max, 'f', -1, 64)
}

// ParsePriceRange parses "min-max" or "min-plus". The search form also sends
// "any" or an empty string, both meaning no range (nil, nil).
func ParsePriceRange(s string) (*PriceRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "any" {
		return nil, nil
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriceRange, s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil || min < 0 {
		return nil, fmt.Errorf("%w: bad lower bound in %q", ErrInvalidPriceRange, s)
	}

	hi = strings.TrimSpace(hi)
	if hi == "plus" {
		return &PriceRange{Min: min}, nil
	}

	max, err := strconv.ParseFloat(hi, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad upper bound in %q", ErrInvalidPriceRange, s)
	}
	if max < min {
		return nil, fmt.Errorf("%w: upper bound below lower bound in %q", ErrInvalidPriceRange, s)
	}
	return &PriceRange{Min: min, Max: &max}, nil
}

// QueryPredicate is a conjunction of independently optional filter fields.
// A nil (or empty) field does not constrain the result.
type QueryPredicate struct {
	Location   *string        `json:"location,omitempty"`    // case-insensitive substring
	Type       *PropertyType  `json:"type,omitempty"`        // exact, case-sensitive
	Bedrooms   *int           `json:"bedrooms,omitempty"`    // exact
	PriceMax   *float64       `json:"price_max,omitempty"`   // inclusive ceiling
	PriceRange *PriceRange    `json:"price_range,omitempty"` // inclusive interval
	Status     *ListingStatus `json:"status,omitempty"`      // exact
	Amenities  []string       `json:"amenities,omitempty"`   // all required, fuzzy matched
}

// IsEmpty reports whether no field is set.
func (q QueryPredicate) IsEmpty() bool {
	return q.Location == nil &&
		q.Type == nil &&
		q.Bedrooms == nil &&
		q.PriceMax == nil &&
		q.PriceRange == nil &&
		q.Status == nil &&
		len(q.Amenities) == 0
}
