package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estateflow/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrInvalidFilter is returned when a form filter cannot be interpreted.
var ErrInvalidFilter = errors.New("invalid search filter")

// SearchService handles listing search business logic
type SearchService struct {
	catalog   *Catalog
	extractor *Extractor
}

// NewSearchService creates a new search service
func NewSearchService(catalog *Catalog, extractor *Extractor) *SearchService {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &SearchService{
		catalog:   catalog,
		extractor: extractor,
	}
}

// Search runs the optional free-text query through the extractor, merges it
// with the form filters and pages through the filtered catalog.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	startTime := time.Now()

	var intent *model.Intent
	extracted := model.QueryPredicate{}
	if q := strings.TrimSpace(req.Query); q != "" {
		in := s.extractor.Extract(q, "")
		intent = &in
		extracted = in.Predicate
	}

	predicate, err := mergeFilters(req.Filters, extracted)
	if err != nil {
		return nil, err
	}

	matches := Filter(s.catalog.Snapshot(), predicate)

	pageSize, offset := pageOptions(req.Options)
	total := len(matches)
	start := min(offset, total)
	end := min(start+pageSize, total)

	results := make([]model.ListingSearchResult, 0, end-start)
	for _, p := range matches[start:end] {
		results = append(results, model.ListingSearchResult{
			Property:       p,
			MatchedReasons: MatchReasons(p, predicate),
		})
	}

	return &model.SearchResponse{
		Results:    results,
		Total:      total,
		Page:       offset/pageSize + 1,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasMore:    end < total,
		Predicate:  predicate,
		Intent:     intent,
		Took:       time.Since(startTime).Milliseconds(),
	}, nil
}

// GetListing retrieves a single listing by ID
func (s *SearchService) GetListing(_ context.Context, id string) (model.Property, bool) {
	return s.catalog.Get(id)
}

// Stats summarizes the current catalog.
func (s *SearchService) Stats() model.MarketStats {
	return ComputeStats(s.catalog.Snapshot())
}

func pageOptions(opts *model.SearchOptions) (pageSize, offset int) {
	pageSize = defaultPageSize
	if opts == nil {
		return pageSize, 0
	}
	if opts.TopK > 0 {
		pageSize = min(opts.TopK, maxPageSize)
	}
	return pageSize, max(opts.Offset, 0)
}

// mergeFilters merges explicit form filters with the extracted predicate.
// Form fields win; "any" and empty values leave the extracted field alone.
func mergeFilters(explicit *model.SearchFilters, extracted model.QueryPredicate) (model.QueryPredicate, error) {
	merged := extracted
	if explicit == nil {
		return merged, nil
	}

	if loc := strings.TrimSpace(explicit.Location); loc != "" {
		merged.Location = &loc
	}

	if v := formValue(explicit.PropertyType); v != "" {
		t, ok := model.ParsePropertyType(v)
		if !ok {
			return model.QueryPredicate{}, fmt.Errorf("%w: unknown property type %q", ErrInvalidFilter, v)
		}
		merged.Type = &t
	}

	if v := formValue(explicit.PriceRange); v != "" {
		r, err := model.ParsePriceRange(v)
		if err != nil {
			return model.QueryPredicate{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		merged.PriceRange = r
	}

	if v := formValue(explicit.Status); v != "" {
		st, ok := model.ParseListingStatus(v)
		if !ok {
			return model.QueryPredicate{}, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, v)
		}
		merged.Status = &st
	}

	if explicit.Bedrooms != nil {
		if *explicit.Bedrooms < 0 {
			return model.QueryPredicate{}, fmt.Errorf("%w: bedrooms must not be negative", ErrInvalidFilter)
		}
		b := *explicit.Bedrooms
		merged.Bedrooms = &b
	}

	if explicit.PriceMax != nil {
		if *explicit.PriceMax < 0 {
			return model.QueryPredicate{}, fmt.Errorf("%w: price_max must not be negative", ErrInvalidFilter)
		}
		pm := *explicit.PriceMax
		merged.PriceMax = &pm
	}

	if len(explicit.Amenities) > 0 {
		merged.Amenities = append([]string(nil), explicit.Amenities...)
	}

	return merged, nil
}

// formValue treats "any" like an unset form field.
func formValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "any") {
		return ""
	}
	return v
}
