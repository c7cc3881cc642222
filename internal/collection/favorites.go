package collection

import (
	"context"

	"estateflow/internal/model"
)

// Favorites is the user's unbounded set of saved properties.
type Favorites struct {
	c *Collection[model.Property]
}

// NewFavorites creates the favorites set stored under key.
func NewFavorites(ctx context.Context, store Storage, key string, opts ...Option) (*Favorites, error) {
	c, err := New(ctx, store, Definition[model.Property]{
		Name: "favorites",
		Key:  key,
		ID:   model.PropertyID,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Favorites{c: c}, nil
}

// Add appends p unless a property with the same id is already saved.
func (f *Favorites) Add(ctx context.Context, p model.Property) {
	f.c.Mutate(ctx, "add", func(items []model.Property) ([]model.Property, bool) {
		if indexOf(items, model.PropertyID, p.ID) >= 0 {
			return items, false
		}
		return append(items, p), true
	})
}

// Remove drops the property with the given id, if present.
func (f *Favorites) Remove(ctx context.Context, id string) {
	f.c.Mutate(ctx, "remove", func(items []model.Property) ([]model.Property, bool) {
		i := indexOf(items, model.PropertyID, id)
		if i < 0 {
			return items, false
		}
		return append(items[:i], items[i+1:]...), true
	})
}

// Toggle removes p if it is saved, otherwise adds it.
func (f *Favorites) Toggle(ctx context.Context, p model.Property) {
	f.c.Mutate(ctx, "toggle", func(items []model.Property) ([]model.Property, bool) {
		if i := indexOf(items, model.PropertyID, p.ID); i >= 0 {
			return append(items[:i], items[i+1:]...), true
		}
		return append(items, p), true
	})
}

func (f *Favorites) Contains(id string) bool { return f.c.Contains(id) }
func (f *Favorites) Count() int              { return f.c.Len() }
func (f *Favorites) Items() []model.Property { return f.c.Items() }

// Subscribe forwards to the underlying collection.
func (f *Favorites) Subscribe(fn func([]model.Property)) func() {
	return f.c.Subscribe(fn)
}
