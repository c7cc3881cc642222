package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"estateflow/internal/model"
)

const unsplashParams = "?auto=format&fit=crop&q=80&w=1000"

var mockImages = []string{
	"https://images.unsplash.com/photo-1512917774080-9991f1c4c750" + unsplashParams,
	"https://images.unsplash.com/photo-1600596542815-e328701102b9" + unsplashParams,
	"https://images.unsplash.com/photo-1600607687939-ce8a6c25118c" + unsplashParams,
	"https://images.unsplash.com/photo-1600566753190-17f0baa2a6c3" + unsplashParams,
	"https://images.unsplash.com/photo-1600585154340-be6161a56a0c" + unsplashParams,
	"https://images.unsplash.com/photo-1600047509807-ba8f99d2cdde" + unsplashParams,
	"https://images.unsplash.com/photo-1600566752355-35792bedcfe1" + unsplashParams,
	"https://images.unsplash.com/photo-1600210492486-724fe5c67fb0" + unsplashParams,
	"https://images.unsplash.com/photo-1512918760532-3ed0006faf67" + unsplashParams,
	"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2" + unsplashParams,
	"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688" + unsplashParams,
	"https://images.unsplash.com/photo-1560185127-6ed189bf02f4" + unsplashParams,
	"https://images.unsplash.com/photo-1484154218962-a1c00207099b" + unsplashParams,
	"https://images.unsplash.com/photo-1592595896551-12b371d546d5" + unsplashParams,
	"https://images.unsplash.com/photo-1516455590571-18256e5bb9ff" + unsplashParams,
	"https://images.unsplash.com/photo-1580587771525-78b9dba3b91d" + unsplashParams,
	"https://images.unsplash.com/photo-1574362848149-11496d93a7c7" + unsplashParams,
	"https://images.unsplash.com/photo-1493663284031-b7e3aefcae8e" + unsplashParams,
}

var mockLocations = []string{
	"Palm Jumeirah",
	"Dubai Marina",
	"Downtown Dubai",
	"Jumeirah Beach Residence",
	"Business Bay",
	"Dubai Hills Estate",
	"Arabian Ranches",
	"Emirates Hills",
	"Jumeirah Lake Towers",
	"Meydan City",
	"Al Barari",
	"City Walk",
}

var mockTypes = []model.PropertyType{
	model.TypeApartment,
	model.TypeVilla,
	model.TypePenthouse,
	model.TypeTownhouse,
	model.TypeStudio,
}

// mockPriceRanges is the sale value band per type, in AED.
var mockPriceRanges = map[model.PropertyType][2]int{
	model.TypeVilla:     {5_000_000, 85_000_000},
	model.TypePenthouse: {8_000_000, 45_000_000},
	model.TypeApartment: {1_200_000, 9_000_000},
	model.TypeTownhouse: {2_500_000, 6_000_000},
	model.TypeStudio:    {700_000, 1_500_000},
}

var mockAmenities = []string{
	"Private Pool", "Gym", "Concierge", "Valet Parking", "Smart Home",
	"Sea View", "Burj Khalifa View", "Private Beach", "Maids Room",
	"Study", "Balcony", "Central A/C", "Kitchen Appliances", "Pets Allowed",
	"Covered Parking", "Spa", "Cinema", "BBQ Area",
}

var mockTitleSuffixes = []string{"Great View", "Luxury Finishing", "Modern Layout", "Premium Amenities"}

var mockAgentNames = []string{
	"Aisha Rahman", "Omar Haddad", "Sofia Petrova", "James Whitfield",
	"Priya Nair", "Khalid Al Mansoori", "Elena Rossi", "Daniel Okafor",
	"Layla Hassan", "Marcus Chen",
}

var mockSentences = []string{
	"Bright open-plan living spaces flow onto a generous terrace.",
	"Floor-to-ceiling windows frame the skyline from every room.",
	"Finished with imported marble and bespoke joinery throughout.",
	"Residents enjoy direct access to retail, dining and the metro.",
	"The community offers landscaped parks and shaded walking trails.",
	"A chef's kitchen comes fitted with premium appliances.",
	"The master suite includes a walk-in wardrobe and spa bathroom.",
	"Quiet, family-friendly neighbourhood close to leading schools.",
	"Recently upgraded with smart lighting and climate control.",
	"Panoramic views of the water make evenings here memorable.",
}

const (
	mockAgentPool = 8
	rentRatio     = 0.08
	saleWeight    = 0.7
)

// MockSource generates a deterministic synthetic Dubai catalog. The same
// Size and Seed always produce the same listings.
type MockSource struct {
	Size int
	Seed uint64
}

func (s MockSource) FetchCatalog(context.Context) ([]model.Property, error) {
	return GenerateProperties(s.Size, s.Seed), nil
}

// GenerateProperties builds count synthetic listings with ids gen-1..gen-N.
func GenerateProperties(count int, seed uint64) []model.Property {
	if count <= 0 {
		return []model.Property{}
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	agents := make([]model.Agent, mockAgentPool)
	for i := range agents {
		agents[i] = model.Agent{
			Name:  pick(r, mockAgentNames),
			Phone: fmt.Sprintf("+971 %09d", r.IntN(1_000_000_000)),
			Image: fmt.Sprintf("https://i.pravatar.cc/150?img=%d", r.IntN(70)+1),
		}
	}

	properties := make([]model.Property, count)
	for i := range properties {
		typ := pick(r, mockTypes)
		location := pick(r, mockLocations)

		status := model.StatusForSale
		if r.Float64() >= saleWeight {
			status = model.StatusForRent
		}

		band := mockPriceRanges[typ]
		price := float64(band[0] + r.IntN(band[1]-band[0]+1))
		if status == model.StatusForRent {
			price *= rentRatio
		}
		price = float64(int64(price/1000+0.5)) * 1000

		bedrooms := 0
		if typ != model.TypeStudio {
			maxBeds := 4
			if typ == model.TypeVilla {
				maxBeds = 7
			}
			bedrooms = 1 + r.IntN(maxBeds)
		}
		bathrooms := 1
		if bedrooms > 0 {
			bathrooms = bedrooms + r.IntN(3)
		}

		properties[i] = model.Property{
			ID:          fmt.Sprintf("gen-%d", i+1),
			Title:       fmt.Sprintf("%s in %s with %s", typ, location, pick(r, mockTitleSuffixes)),
			Price:       price,
			Location:    location + ", Dubai",
			Bedrooms:    bedrooms,
			Bathrooms:   bathrooms,
			Sqft:        bedrooms*400 + 500 + r.IntN(1501),
			YearBuilt:   2010 + r.IntN(15),
			Description: strings.Join(sample(r, mockSentences, 3+r.IntN(3)), " "),
			Amenities:   sample(r, mockAmenities, 3+r.IntN(6)),
			Type:        typ,
			Status:      status,
			ImageURL:    pick(r, mockImages),
			Images:      sample(r, mockImages, 4),
			Agent:       agents[r.IntN(len(agents))],
		}
	}
	return properties
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// sample returns n distinct elements of items in random order.
func sample[T any](r *rand.Rand, items []T, n int) []T {
	n = min(n, len(items))
	idx := r.Perm(len(items))[:n]
	out := make([]T, n)
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}
