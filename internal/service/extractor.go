package service

import (
	"regexp"
	"strconv"
	"strings"

	"estateflow/internal/model"
)

// DefaultResultLimit caps the properties attached to an assistant turn.
const DefaultResultLimit = 6

// Rule names, reported in model.Intent.Matched.
const (
	RuleBedrooms = "bedrooms"
	RulePriceMax = "price_max"
	RuleType     = "type"
	RuleLocation = "location"
)

var (
	bedroomsPattern = regexp.MustCompile(`\b(\d+)\s*-?\s*(?:bedrooms?|beds?)\b`)
	priceMaxPattern = regexp.MustCompile(`\b(?:under|below|less than|maximum|max)\s*(?:of\s*)?(?:aed\s*)?(\d+(?:,\d{3})*(?:\.\d+)?)\s*(million|mil|m|thousand|k)?\b`)
	typePattern     = regexp.MustCompile(`\b(apartment|villa|cottage|penthouse|studio|townhouse)s?\b`)
	searchPattern   = regexp.MustCompile(`\b(?:show|find|search|looking for|want|need|get me)\b`)
)

// neighborhood is a location fragment and the substring it filters on.
type neighborhood struct {
	fragment string
	filter   string
}

// knownNeighborhoods is checked in order; the first fragment found in the
// text wins, so longer names precede the fragments they contain.
var knownNeighborhoods = []neighborhood{
	{"dubai marina", "dubai marina"},
	{"downtown", "downtown"},
	{"palm jumeirah", "palm jumeirah"},
	{"business bay", "business bay"},
	{"jumeirah beach residence", "jumeirah beach residence"},
	{"jumeirah lake towers", "jumeirah lake towers"},
	{"jbr", "jumeirah beach residence"},
	{"jlt", "jumeirah lake towers"},
	{"jumeirah", "jumeirah"},
	{"deira", "deira"},
	{"bur dubai", "bur dubai"},
	{"dubai hills", "dubai hills"},
	{"arabian ranches", "arabian ranches"},
	{"emirates hills", "emirates hills"},
	{"meydan", "meydan"},
	{"al barari", "al barari"},
	{"city walk", "city walk"},
}

// Rule is one extraction step: it inspects the lower-cased text and, when it
// recognizes something, sets a predicate field and returns true.
type Rule struct {
	Name  string
	Apply func(text string, p *model.QueryPredicate) bool
}

// Extractor turns free text into a query predicate with an ordered list of
// independent rules.
type Extractor struct {
	rules []Rule
}

// NewExtractor returns an extractor running rules in order, or the default
// rules when none are given.
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// DefaultRules returns the bedrooms, price ceiling, type and location rules.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleBedrooms, Apply: extractBedrooms},
		{Name: RulePriceMax, Apply: extractPriceMax},
		{Name: RuleType, Apply: extractType},
		{Name: RuleLocation, Apply: extractLocation},
	}
}

// Extract runs every rule over the lower-cased concatenation of utterance
// and auxiliary. Search intent is judged on the utterance alone.
func (e *Extractor) Extract(utterance, auxiliary string) model.Intent {
	text := strings.ToLower(strings.TrimSpace(utterance + " " + auxiliary))

	var intent model.Intent
	for _, r := range e.rules {
		if r.Apply(text, &intent.Predicate) {
			intent.Matched = append(intent.Matched, r.Name)
		}
	}
	intent.SearchRequested = ShouldSearch(utterance)
	return intent
}

// ShouldSearch reports whether the utterance explicitly asks to see
// properties.
func ShouldSearch(utterance string) bool {
	return searchPattern.MatchString(strings.ToLower(utterance))
}

// Decide picks the properties to attach to an assistant turn. A structured
// match filters the catalog even without a search verb; a bare search verb
// browses the head of the catalog; anything else attaches nothing.
func Decide(intent model.Intent, catalog []model.Property, limit int) []model.Property {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	var results []model.Property
	switch {
	case intent.HasStructuredMatch():
		results = Filter(catalog, intent.Predicate)
	case intent.SearchRequested:
		results = catalog
	default:
		return nil
	}

	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return nil
	}
	out := make([]model.Property, len(results))
	copy(out, results)
	return out
}

func extractBedrooms(text string, p *model.QueryPredicate) bool {
	m := bedroomsPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	p.Bedrooms = &n
	return true
}

func extractPriceMax(text string, p *model.QueryPredicate) bool {
	m := priceMaxPattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return false
	}
	switch m[2] {
	case "million", "mil", "m":
		amount *= 1_000_000
	case "thousand", "k":
		amount *= 1_000
	}
	p.PriceMax = &amount
	return true
}

func extractType(text string, p *model.QueryPredicate) bool {
	m := typePattern.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	t, ok := model.ParsePropertyType(m[1])
	if !ok {
		return false
	}
	p.Type = &t
	return true
}

func extractLocation(text string, p *model.QueryPredicate) bool {
	for _, n := range knownNeighborhoods {
		if strings.Contains(text, n.fragment) {
			loc := n.filter
			p.Location = &loc
			return true
		}
	}
	return false
}
