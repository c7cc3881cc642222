package service

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"estateflow/internal/model"
)

var aedPrinter = message.NewPrinter(language.English)

// ComputeStats summarizes a catalog. An empty catalog yields zero prices and
// empty lists.
func ComputeStats(catalog []model.Property) model.MarketStats {
	stats := model.MarketStats{
		TotalListings: len(catalog),
		PropertyTypes: []string{},
		Locations:     []string{},
	}
	if len(catalog) == 0 {
		return stats
	}

	stats.LowestPrice = math.Inf(1)
	stats.HighestPrice = math.Inf(-1)
	seenType := map[string]bool{}
	seenLocation := map[string]bool{}

	for _, p := range catalog {
		stats.LowestPrice = math.Min(stats.LowestPrice, p.Price)
		stats.HighestPrice = math.Max(stats.HighestPrice, p.Price)

		if t := string(p.Type); t != "" && !seenType[t] {
			seenType[t] = true
			stats.PropertyTypes = append(stats.PropertyTypes, t)
		}
		if p.Location != "" && !seenLocation[p.Location] {
			seenLocation[p.Location] = true
			stats.Locations = append(stats.Locations, p.Location)
		}
	}

	slices.Sort(stats.PropertyTypes)
	return stats
}

// FormatCompactPrice renders "AED 1.2M" for millions and "AED 700k" below.
func FormatCompactPrice(price float64) string {
	if price >= 1_000_000 {
		return fmt.Sprintf("AED %.1fM", price/1_000_000)
	}
	return fmt.Sprintf("AED %.0fk", price/1_000)
}

// FormatAED renders a price with thousands separators, e.g. "AED 1,250,000".
func FormatAED(price float64) string {
	return aedPrinter.Sprintf("AED %d", int64(math.Round(price)))
}
