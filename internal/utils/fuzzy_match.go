package utils

import (
	"strings"
)

// amenityAliases maps a search keyword to the listing amenity phrasings it
// should match. Keys are matched as substrings of the search term.
var amenityAliases = map[string][]string{
	"pool":      {"private pool", "swimming pool", "pool"},
	"gym":       {"gym", "gymnasium", "fitness"},
	"fitness":   {"gym", "fitness"},
	"aircon":    {"central a/c", "air conditioning", "a/c"},
	"a/c":       {"central a/c", "a/c"},
	"parking":   {"covered parking", "valet parking", "parking"},
	"valet":     {"valet parking"},
	"beach":     {"private beach", "beach access"},
	"sea":       {"sea view"},
	"burj":      {"burj khalifa view"},
	"maid":      {"maids room", "maid's room"},
	"smart":     {"smart home"},
	"pet":       {"pets allowed", "pet friendly"},
	"bbq":       {"bbq area", "barbecue"},
	"barbecue":  {"bbq area", "barbecue"},
	"cinema":    {"cinema", "home theatre"},
	"theatre":   {"cinema", "home theatre"},
	"spa":       {"spa", "sauna"},
	"sauna":     {"spa", "sauna"},
	"balcony":   {"balcony", "terrace"},
	"terrace":   {"balcony", "terrace"},
	"kitchen":   {"kitchen appliances", "kitchen"},
	"study":     {"study"},
	"concierge": {"concierge", "24-hour concierge"},
}

// amenityCanonical is the catalog spelling for common user phrasings.
var amenityCanonical = map[string]string{
	"pool":              "Private Pool",
	"private pool":      "Private Pool",
	"swimming pool":     "Private Pool",
	"gym":               "Gym",
	"gymnasium":         "Gym",
	"fitness":           "Gym",
	"concierge":         "Concierge",
	"valet":             "Valet Parking",
	"valet parking":     "Valet Parking",
	"smart home":        "Smart Home",
	"sea view":          "Sea View",
	"burj view":         "Burj Khalifa View",
	"burj khalifa view": "Burj Khalifa View",
	"beach":             "Private Beach",
	"private beach":     "Private Beach",
	"maid room":         "Maids Room",
	"maids room":        "Maids Room",
	"maid's room":       "Maids Room",
	"study":             "Study",
	"balcony":           "Balcony",
	"terrace":           "Balcony",
	"ac":                "Central A/C",
	"a/c":               "Central A/C",
	"aircon":            "Central A/C",
	"central a/c":       "Central A/C",
	"pets":              "Pets Allowed",
	"pet friendly":      "Pets Allowed",
	"pets allowed":      "Pets Allowed",
	"parking":           "Covered Parking",
	"covered parking":   "Covered Parking",
	"spa":               "Spa",
	"cinema":            "Cinema",
	"bbq":               "BBQ Area",
	"barbecue":          "BBQ Area",
	"bbq area":          "BBQ Area",
}

// FuzzyMatchAmenity reports whether a user search term matches a listing
// amenity, either directly or through a known alias.
func FuzzyMatchAmenity(searchTerm, amenity string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))
	if searchLower == "" || amenityLower == "" {
		return false
	}

	if searchLower == amenityLower || strings.Contains(amenityLower, searchLower) {
		return true
	}

	for key, values := range amenityAliases {
		if !strings.Contains(searchLower, key) {
			continue
		}
		for _, alias := range values {
			if strings.Contains(amenityLower, alias) {
				return true
			}
		}
	}

	return false
}

// HasAmenity reports whether any of amenities matches term.
func HasAmenity(amenities []string, term string) bool {
	for _, a := range amenities {
		if FuzzyMatchAmenity(term, a) {
			return true
		}
	}
	return false
}

// NormalizeAmenity maps a user phrasing to the catalog spelling. Unknown
// phrasings are returned with each word capitalized.
func NormalizeAmenity(amenity string) string {
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))
	if normalized, ok := amenityCanonical[amenityLower]; ok {
		return normalized
	}

	words := strings.Fields(amenityLower)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
