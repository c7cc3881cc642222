package model

// SearchRequest represents a listing search from the search form. Query is an
// optional free-text line that goes through the heuristic extractor; Filters
// are the structured form fields and win over anything extracted.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters *SearchFilters `json:"filters,omitempty"`
	Options *SearchOptions `json:"options,omitempty"`
}

// SearchFilters represents the structured search form.
type SearchFilters struct {
	Location     string   `json:"location"`
	PropertyType string   `json:"property_type"` // "any" or a PropertyType
	PriceRange   string   `json:"price_range"`   // "any", "min-max" or "min-plus"
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	Status       string   `json:"status"` // "any", "for-sale" or "for-rent"
	Amenities    []string `json:"amenities,omitempty"`
}

// SearchOptions represents paging options
type SearchOptions struct {
	TopK   int `json:"top_k"`
	Offset int `json:"offset"`
}

// ListingSearchResult represents a search result with additional metadata
type ListingSearchResult struct {
	Property
	MatchedReasons []string `json:"matched_reasons"`
}

// SearchResponse represents a search result response
type SearchResponse struct {
	Results    []ListingSearchResult `json:"results"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
	HasMore    bool                  `json:"has_more"`
	Predicate  QueryPredicate        `json:"predicate"`
	Intent     *Intent               `json:"intent,omitempty"`
	Took       int64                 `json:"took_ms"` // Response time in milliseconds
}

// ChatRequest is a chat submission.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatState is the observable transcript/typing-state pair.
type ChatState struct {
	Turns  []Turn `json:"turns"`
	Typing bool   `json:"typing"`
	State  string `json:"state"`
}

// CollectionResponse is the body returned for favorites and comparison reads.
type CollectionResponse struct {
	Items []Property `json:"items"`
	Count int        `json:"count"`
	Max   int        `json:"max,omitempty"`
}

// ToggleResponse reports the membership of a property after a mutation.
type ToggleResponse struct {
	ID      string `json:"id"`
	Present bool   `json:"present"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// MarketStats summarizes a catalog.
type MarketStats struct {
	TotalListings int      `json:"total_listings"`
	LowestPrice   float64  `json:"lowest_price"`
	HighestPrice  float64  `json:"highest_price"`
	PropertyTypes []string `json:"property_types"`
	Locations     []string `json:"locations"`
}

// ComparisonRow is one attribute line of the side-by-side comparison.
type ComparisonRow struct {
	Label     string   `json:"label"`
	Values    []string `json:"values"`
	Differs   bool     `json:"differs"`
	Highlight bool     `json:"highlight"`
}

// ComparisonTable is the side-by-side view of the comparison set.
type ComparisonTable struct {
	PropertyIDs []string        `json:"property_ids"`
	Rows        []ComparisonRow `json:"rows"`
}
