package collection

import (
	"context"

	"estateflow/internal/model"
)

// DefaultComparisonMax is the comparison set capacity when none is configured.
const DefaultComparisonMax = 3

// Comparison is a bounded set of properties shown side by side.
//
// Hitting the capacity is an expected user action, so Add and Toggle report
// it with a false return instead of an error.
type Comparison struct {
	c   *Collection[model.Property]
	max int
}

// NewComparison creates the comparison set stored under key. Stored data
// longer than max (e.g. after lowering the limit) is truncated on load.
func NewComparison(ctx context.Context, store Storage, key string, max int, opts ...Option) (*Comparison, error) {
	if max <= 0 {
		max = DefaultComparisonMax
	}
	c, err := New(ctx, store, Definition[model.Property]{
		Name: "comparison",
		Key:  key,
		ID:   model.PropertyID,
		Normalize: func(items []model.Property) []model.Property {
			if len(items) > max {
				return items[:max]
			}
			return items
		},
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Comparison{c: c, max: max}, nil
}

// Add appends p and returns true. Adding a property that is already in the
// set is a successful no-op. It returns false, without changing anything,
// only when p is absent and the set is full.
func (s *Comparison) Add(ctx context.Context, p model.Property) bool {
	var ok bool
	s.c.Mutate(ctx, "add", func(items []model.Property) ([]model.Property, bool) {
		var changed bool
		items, ok, changed = s.add(items, p)
		return items, changed
	})
	return ok
}

// add returns the new list, the caller-visible result and whether the list
// changed.
func (s *Comparison) add(items []model.Property, p model.Property) ([]model.Property, bool, bool) {
	if indexOf(items, model.PropertyID, p.ID) >= 0 {
		return items, true, false
	}
	if len(items) >= s.max {
		return items, false, false
	}
	return append(items, p), true, true
}

// Remove drops the property with the given id, if present.
func (s *Comparison) Remove(ctx context.Context, id string) {
	s.c.Mutate(ctx, "remove", func(items []model.Property) ([]model.Property, bool) {
		i := indexOf(items, model.PropertyID, id)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

// ToggleOutcome says which branch a toggle took.
type ToggleOutcome int

const (
	ToggleAdded ToggleOutcome = iota
	ToggleRemoved
	ToggleRejected // absent and the set is full
)

// Toggle removes p when present and returns false ("now absent"); otherwise
// it behaves like Add.
func (s *Comparison) Toggle(ctx context.Context, p model.Property) bool {
	return s.Flip(ctx, p) == ToggleAdded
}

// Flip toggles p like Toggle and reports the outcome. Presence is checked
// under the collection lock, so a removal is never mistaken for a rejection.
func (s *Comparison) Flip(ctx context.Context, p model.Property) ToggleOutcome {
	var outcome ToggleOutcome
	s.c.Mutate(ctx, "toggle", func(items []model.Property) ([]model.Property, bool) {
		if i := indexOf(items, model.PropertyID, p.ID); i >= 0 {
			outcome = ToggleRemoved
			return append(items[:i], items[i+1:]...), true
		}
		next, ok, changed := s.add(items, p)
		outcome = ToggleAdded
		if !ok {
			outcome = ToggleRejected
		}
		return next, changed
	})
	return outcome
}

// Clear empties the set.
func (s *Comparison) Clear(ctx context.Context) {
	s.c.Replace(ctx, nil)
}

func (s *Comparison) Contains(id string) bool { return s.c.Contains(id) }
func (s *Comparison) Count() int              { return s.c.Len() }
func (s *Comparison) Max() int                { return s.max }
func (s *Comparison) Items() []model.Property { return s.c.Items() }

// Subscribe forwards to the underlying collection.
func (s *Comparison) Subscribe(fn func([]model.Property)) func() {
	return s.c.Subscribe(fn)
}
