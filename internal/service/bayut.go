package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"estateflow/internal/config"
	"estateflow/internal/model"
)

const (
	defaultAgentImage   = "https://images.unsplash.com/photo-1560250097-0b93528c311a?auto=format&fit=crop&q=80&w=200"
	defaultAgentName    = "Agent"
	defaultAgentPhone   = "Contact Agent"
	defaultBayutAmenity = "Luxury Amenities"
)

// BayutSource fetches listings from the Bayut RapidAPI list endpoint.
type BayutSource struct {
	config     *config.CatalogConfig
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewBayutSource creates a Bayut source.
func NewBayutSource(cfg *config.CatalogConfig, logger *slog.Logger) *BayutSource {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.RapidAPIHost
	}
	return &BayutSource{
		config:  cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("source", "bayut"),
		now:     time.Now,
		httpClient: &http.Client{
			Timeout: config.Seconds(cfg.Timeout),
		},
	}
}

type bayutPhoto struct {
	URL string `json:"url"`
}

type bayutLocation struct {
	Name string `json:"name"`
}

type bayutAgency struct {
	Name string      `json:"name"`
	Logo *bayutPhoto `json:"logo"`
}

type bayutHit struct {
	ID          int64           `json:"id"`
	ExternalID  string          `json:"externalID"`
	Title       string          `json:"title"`
	Price       float64         `json:"price"`
	Rooms       int             `json:"rooms"`
	Baths       int             `json:"baths"`
	Area        float64         `json:"area"`
	Location    []bayutLocation `json:"location"`
	CoverPhoto  *bayutPhoto     `json:"coverPhoto"`
	Photos      []bayutPhoto    `json:"photos"`
	PhoneNumber string          `json:"phoneNumber"`
	ContactName string          `json:"contactName"`
	Agency      *bayutAgency    `json:"agency"`
	Purpose     string          `json:"purpose"`
	Product     string          `json:"product"`
	Amenities   []string        `json:"amenities"`
}

type bayutResponse struct {
	Hits []bayutHit `json:"hits"`
}

// FetchCatalog implements CatalogSource.
func (s *BayutSource) FetchCatalog(ctx context.Context) ([]model.Property, error) {
	if s.config.RapidAPIKey == "" {
		return nil, fmt.Errorf("bayut: %w: RAPIDAPI_KEY is empty", ErrCatalogNotConfigured)
	}

	q := url.Values{}
	q.Set("locationExternalIDs", s.config.LocationIDs)
	q.Set("purpose", s.config.Purpose)
	q.Set("hitsPerPage", strconv.Itoa(s.config.HitsPerPage))
	q.Set("page", "0")
	q.Set("lang", "en")
	q.Set("sort", "city-level-score")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/properties/list?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", s.config.RapidAPIKey)
	req.Header.Set("x-rapidapi-host", s.config.RapidAPIHost)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bayut API request failed with status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var result bayutResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	year := s.now().Year()
	properties := make([]model.Property, 0, len(result.Hits))
	for _, hit := range result.Hits {
		properties = append(properties, mapBayutHit(hit, year))
	}
	s.logger.Debug("fetched listings", "hits", len(result.Hits))
	return properties, nil
}

// mapBayutHit converts one list hit. The list endpoint carries no build year
// or description, so the current year and the title stand in.
func mapBayutHit(hit bayutHit, year int) model.Property {
	id := hit.ExternalID
	if id == "" {
		id = strconv.FormatInt(hit.ID, 10)
	}

	names := make([]string, 0, len(hit.Location))
	for _, l := range hit.Location {
		names = append(names, l.Name)
	}

	status := model.StatusForSale
	if hit.Purpose == "for-rent" {
		status = model.StatusForRent
	}

	amenities := hit.Amenities
	if len(amenities) == 0 {
		amenities = []string{defaultBayutAmenity}
	}

	var cover string
	if hit.CoverPhoto != nil {
		cover = hit.CoverPhoto.URL
	}
	images := make([]string, 0, len(hit.Photos))
	for _, ph := range hit.Photos {
		images = append(images, ph.URL)
	}
	if len(images) == 0 && cover != "" {
		images = append(images, cover)
	}

	agent := model.Agent{Name: defaultAgentName, Phone: defaultAgentPhone, Image: defaultAgentImage}
	switch {
	case hit.ContactName != "":
		agent.Name = hit.ContactName
	case hit.Agency != nil && hit.Agency.Name != "":
		agent.Name = hit.Agency.Name
	}
	if hit.PhoneNumber != "" {
		agent.Phone = hit.PhoneNumber
	}
	if hit.Agency != nil && hit.Agency.Logo != nil && hit.Agency.Logo.URL != "" {
		agent.Image = hit.Agency.Logo.URL
	}

	return model.Property{
		ID:          id,
		Title:       hit.Title,
		Price:       hit.Price,
		Location:    strings.Join(names, ", "),
		Bedrooms:    hit.Rooms,
		Bathrooms:   hit.Baths,
		Sqft:        int(math.Round(hit.Area)),
		YearBuilt:   year,
		Description: hit.Title,
		Amenities:   amenities,
		Type:        mapBayutProduct(hit.Product),
		Status:      status,
		ImageURL:    cover,
		Images:      images,
		Agent:       agent,
	}
}

// mapBayutProduct picks a property type from Bayut's free-form product
// field, defaulting to Apartment.
func mapBayutProduct(product string) model.PropertyType {
	lower := strings.ToLower(product)
	for _, t := range []model.PropertyType{model.TypeVilla, model.TypeApartment, model.TypePenthouse, model.TypeTownhouse, model.TypeStudio} {
		if strings.Contains(lower, strings.ToLower(string(t))) {
			return t
		}
	}
	return model.TypeApartment
}
