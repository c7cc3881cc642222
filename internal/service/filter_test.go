package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateflow/internal/model"
)

func sampleCatalog() []model.Property {
	return []model.Property{
		{ID: "1", Title: "Marina Apartment", Price: 1800000, Location: "Dubai Marina, Dubai", Bedrooms: 3, Type: model.TypeApartment, Status: model.StatusForSale, Amenities: []string{"Gym", "Sea View"}},
		{ID: "2", Title: "Palm Villa", Price: 15000000, Location: "Palm Jumeirah, Dubai", Bedrooms: 5, Type: model.TypeVilla, Status: model.StatusForSale, Amenities: []string{"Private Pool", "Private Beach"}},
		{ID: "3", Title: "Marina Studio", Price: 85000, Location: "Dubai Marina, Dubai", Bedrooms: 0, Type: model.TypeStudio, Status: model.StatusForRent, Amenities: []string{"Gym"}},
		{ID: "4", Title: "Downtown Apartment", Price: 2500000, Location: "Downtown Dubai, Dubai", Bedrooms: 3, Type: model.TypeApartment, Status: model.StatusForSale, Amenities: []string{"Burj Khalifa View", "Concierge"}},
		{ID: "5", Title: "Hills Townhouse", Price: 3200000, Location: "Dubai Hills Estate, Dubai", Bedrooms: 4, Type: model.TypeTownhouse, Status: model.StatusForSale, Amenities: []string{"Balcony", "Covered Parking"}},
	}
}

func catalogIDs(items []model.Property) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func strPtr(v string) *string { return &v }

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func typePtr(v model.PropertyType) *model.PropertyType { return &v }

func TestFilter_EmptyPredicateReturnsCatalog(t *testing.T) {
	catalog := sampleCatalog()
	assert.Equal(t, catalog, Filter(catalog, model.QueryPredicate{}))
	assert.Empty(t, Filter(nil, model.QueryPredicate{}))
}

func TestFilter_Fields(t *testing.T) {
	rent := model.StatusForRent

	tests := []struct {
		name      string
		predicate model.QueryPredicate
		want      []string
	}{
		{name: "location is case-insensitive substring", predicate: model.QueryPredicate{Location: strPtr("dubai MARINA")}, want: []string{"1", "3"}},
		{name: "type exact", predicate: model.QueryPredicate{Type: typePtr(model.TypeApartment)}, want: []string{"1", "4"}},
		{name: "type is case-sensitive", predicate: model.QueryPredicate{Type: typePtr("apartment")}, want: []string{}},
		{name: "bedrooms exact", predicate: model.QueryPredicate{Bedrooms: intPtr(3)}, want: []string{"1", "4"}},
		{name: "price ceiling inclusive", predicate: model.QueryPredicate{PriceMax: float64Ptr(2500000)}, want: []string{"1", "3", "4"}},
		{name: "status", predicate: model.QueryPredicate{Status: &rent}, want: []string{"3"}},
		{name: "amenities all required", predicate: model.QueryPredicate{Amenities: []string{"gym", "sea view"}}, want: []string{"1"}},
		{name: "amenity alias", predicate: model.QueryPredicate{Amenities: []string{"pool"}}, want: []string{"2"}},
		{
			name: "conjunction",
			predicate: model.QueryPredicate{
				Location: strPtr("marina"),
				Type:     typePtr(model.TypeApartment),
				Bedrooms: intPtr(3),
				PriceMax: float64Ptr(2000000),
			},
			want: []string{"1"},
		},
		{name: "no match", predicate: model.QueryPredicate{Location: strPtr("deira")}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, catalogIDs(Filter(sampleCatalog(), tt.predicate)))
		})
	}
}

func TestFilter_PriceRangeBounds(t *testing.T) {
	priced := func(prices ...float64) []model.Property {
		out := make([]model.Property, len(prices))
		for i, p := range prices {
			out[i] = model.Property{ID: "p", Price: p}
		}
		return out
	}
	prices := func(items []model.Property) []float64 {
		out := make([]float64, len(items))
		for i, p := range items {
			out[i] = p.Price
		}
		return out
	}

	closed, err := model.ParsePriceRange("500000-1000000")
	require.NoError(t, err)
	got := Filter(priced(499999, 500000, 750000, 1000000, 1000001), model.QueryPredicate{PriceRange: closed})
	assert.Equal(t, []float64{500000, 750000, 1000000}, prices(got))

	open, err := model.ParsePriceRange("1000000-plus")
	require.NoError(t, err)
	got = Filter(priced(999999, 1000000, 5000000), model.QueryPredicate{PriceRange: open})
	assert.Equal(t, []float64{1000000, 5000000}, prices(got))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	catalog := sampleCatalog()
	before := catalogIDs(catalog)

	Filter(catalog, model.QueryPredicate{Bedrooms: intPtr(5)})

	assert.Equal(t, before, catalogIDs(catalog))
}
