package model

// Intent is what the heuristic extractor pulled out of a chat utterance.
type Intent struct {
	Predicate       QueryPredicate `json:"predicate"`
	Matched         []string       `json:"matched,omitempty"` // names of the rules that fired
	SearchRequested bool           `json:"search_requested"`
}

// HasStructuredMatch reports whether any extraction rule fired.
func (i Intent) HasStructuredMatch() bool {
	return len(i.Matched) > 0
}
