package service

import (
	"fmt"
	"strconv"

	"estateflow/internal/model"
)

// comparisonAttribute is one row of the side-by-side table.
type comparisonAttribute struct {
	label     string
	highlight bool
	value     func(p model.Property) string
}

var comparisonAttributes = []comparisonAttribute{
	{label: "Price", highlight: true, value: func(p model.Property) string { return FormatAED(p.Price) }},
	{label: "Location", value: func(p model.Property) string { return p.Location }},
	{label: "Property Type", value: func(p model.Property) string { return string(p.Type) }},
	{label: "Bedrooms", value: func(p model.Property) string { return fmt.Sprintf("%d Beds", p.Bedrooms) }},
	{label: "Bathrooms", value: func(p model.Property) string { return fmt.Sprintf("%d Baths", p.Bathrooms) }},
	{label: "Square Feet", highlight: true, value: func(p model.Property) string { return aedPrinter.Sprintf("%d sqft", p.Sqft) }},
	{label: "Year Built", value: func(p model.Property) string { return strconv.Itoa(p.YearBuilt) }},
	{label: "Status", value: func(p model.Property) string { return string(p.Status) }},
}

// BuildComparisonTable lays the given properties out attribute by attribute.
// Differs is set on rows whose values are not all equal.
func BuildComparisonTable(properties []model.Property) model.ComparisonTable {
	table := model.ComparisonTable{
		PropertyIDs: make([]string, len(properties)),
		Rows:        make([]model.ComparisonRow, 0, len(comparisonAttributes)),
	}
	for i, p := range properties {
		table.PropertyIDs[i] = p.ID
	}

	for _, attr := range comparisonAttributes {
		row := model.ComparisonRow{
			Label:     attr.label,
			Highlight: attr.highlight,
			Values:    make([]string, len(properties)),
		}
		for i, p := range properties {
			row.Values[i] = attr.value(p)
			if i > 0 && row.Values[i] != row.Values[0] {
				row.Differs = true
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
