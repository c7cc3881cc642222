package service

import (
	"fmt"
	"strings"

	"estateflow/internal/model"
)

// promptLocations is how many catalog locations the system context names.
const promptLocations = 5

// BuildPrompt assembles the full conversation prompt: system context built
// from catalog stats, the recent history as "User:"/"Assistant:" lines and
// finally the new user line followed by an open "Assistant:" cue.
func BuildPrompt(stats model.MarketStats, history []model.Turn, userText string) string {
	var b strings.Builder

	b.WriteString(systemContext(stats))
	b.WriteString("\n\n")

	if len(history) > 0 {
		for _, turn := range history {
			b.WriteString(speaker(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(userText)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

func speaker(role model.Role) string {
	if role == model.RoleUser {
		return "User"
	}
	return "Assistant"
}

func systemContext(stats model.MarketStats) string {
	locations := stats.Locations
	more := ""
	if len(locations) > promptLocations {
		locations = locations[:promptLocations]
		more = "..."
	}

	return fmt.Sprintf(`You are an AI real estate assistant for EstateFlow, a premium Dubai property platform.

AVAILABLE PROPERTIES OVERVIEW:
- Total Properties: %d
- Price Range: %s - %s
- Property Types: %s
- Locations: %s%s

YOUR ROLE:
- Help users find properties matching their criteria
- Answer questions about available listings
- Recommend options based on budget, location and preferences
- Be friendly, professional and concise
- When users ask about bedrooms, price, location or type, acknowledge what matches
- Use AED currency for all prices
- Keep responses under 100 words unless giving detailed property information

When users ask to see properties, acknowledge the request and mention that matching properties are shown below your message.`,
		stats.TotalListings,
		FormatAED(stats.LowestPrice),
		FormatAED(stats.HighestPrice),
		strings.Join(stats.PropertyTypes, ", "),
		strings.Join(locations, ", "),
		more,
	)
}
