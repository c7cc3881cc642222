package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estateflow/internal/model"
	"estateflow/internal/service"
)

// ListingHandler handles catalog and search HTTP requests
type ListingHandler struct {
	searchService *service.SearchService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(searchService *service.SearchService) *ListingHandler {
	return &ListingHandler{searchService: searchService}
}

// List handles GET /api/v1/listings. The search form fields are read from the
// query string: q, location, type, price_range, status, bedrooms, price_max,
// amenity (repeatable), top_k and offset.
func (h *ListingHandler) List(c *gin.Context) {
	req := model.SearchRequest{
		Query: c.Query("q"),
		Filters: &model.SearchFilters{
			Location:     c.Query("location"),
			PropertyType: c.Query("type"),
			PriceRange:   c.Query("price_range"),
			Status:       c.Query("status"),
			Amenities:    c.QueryArray("amenity"),
		},
		Options: &model.SearchOptions{},
	}

	var ok bool
	if req.Filters.Bedrooms, ok = optionalInt(c, "bedrooms"); !ok {
		return
	}
	if v := c.Query("price_max"); v != "" {
		pm, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price_max"})
			return
		}
		req.Filters.PriceMax = &pm
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"top_k", &req.Options.TopK},
		{"offset", &req.Options.Offset},
	} {
		v, ok := optionalInt(c, p.name)
		if !ok {
			return
		}
		if v != nil {
			*p.dst = *v
		}
	}

	h.search(c, &req)
}

// Search handles POST /api/v1/listings/search
func (h *ListingHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.search(c, &req)
}

func (h *ListingHandler) search(c *gin.Context, req *model.SearchRequest) {
	response, err := h.searchService.Search(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetListing handles GET /api/v1/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, ok := h.searchService.GetListing(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Stats handles GET /api/v1/stats
func (h *ListingHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.searchService.Stats())
}

// optionalInt reads an integer query parameter and writes a 400 when it is
// malformed.
func optionalInt(c *gin.Context, name string) (*int, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	return &n, true
}
