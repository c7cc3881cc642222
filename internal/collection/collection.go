// Package collection implements persisted, observable lists of records.
//
// A Collection owns one storage key. Its in-memory slice is authoritative for
// the lifetime of the process: storage faults degrade to an empty list on load
// and are swallowed on save, so no caller ever sees a storage error.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// SchemaVersion is the version written in every stored envelope.
const SchemaVersion = 1

// ErrUnknownSchema is reported (and logged) when stored data carries a version
// this build does not understand.
var ErrUnknownSchema = errors.New("unknown collection schema")

// Storage is the subset of storage.Storage a collection needs.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Observer receives mutation and fault notifications, typically metrics.
type Observer interface {
	ObserveMutation(collection, op string)
	ObserveStorageFault(collection, op string)
}

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string)     {}
func (noopObserver) ObserveStorageFault(string, string) {}

// Definition describes one collection.
type Definition[T any] struct {
	// Name labels logs and metrics ("favorites", "comparison", ...).
	Name string
	// Key is the storage key this collection exclusively owns.
	Key string
	// ID is the identity projection. Ids are unique within a collection.
	ID func(T) string
	// Normalize, if set, is applied to data coming out of storage.
	Normalize func([]T) []T
}

// Option configures a Collection.
type Option func(*settings)

type settings struct {
	logger   *slog.Logger
	observer Observer
}

// WithLogger sets the logger used for storage faults.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver sets the mutation/fault observer.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

// envelope is the stored representation of a collection.
type envelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// Collection is a persisted, insertion-ordered list with unique ids.
type Collection[T any] struct {
	def      Definition[T]
	store    Storage
	logger   *slog.Logger
	observer Observer

	mu    sync.RWMutex
	items []T

	subMu   sync.Mutex
	subs    map[int]func([]T)
	nextSub int
}

// New creates a collection and hydrates it from storage.
func New[T any](ctx context.Context, store Storage, def Definition[T], opts ...Option) (*Collection[T], error) {
	if def.Key == "" {
		return nil, errors.New("collection key is required")
	}
	if def.ID == nil {
		return nil, fmt.Errorf("collection %s: id projection is required", def.Key)
	}
	if def.Name == "" {
		def.Name = def.Key
	}

	s := settings{logger: slog.Default(), observer: noopObserver{}}
	for _, opt := range opts {
		opt(&s)
	}

	c := &Collection[T]{
		def:      def,
		store:    store,
		logger:   s.logger.With("collection", def.Name, "key", def.Key),
		observer: s.observer,
		subs:     make(map[int]func([]T)),
	}
	c.items = c.Load(ctx)
	return c, nil
}

// Name returns the collection's label.
func (c *Collection[T]) Name() string {
	return c.def.Name
}

// Load reads the collection from storage. Missing, unreadable or corrupt data
// yields an empty slice.
func (c *Collection[T]) Load(ctx context.Context) []T {
	raw, ok, err := c.store.Get(ctx, c.def.Key)
	if err != nil {
		c.fault("load", err)
		return []T{}
	}
	if !ok {
		return []T{}
	}

	items, err := c.decode(raw)
	if err != nil {
		c.fault("load", err)
		return []T{}
	}
	return items
}

func (c *Collection[T]) decode(raw string) ([]T, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []T{}, nil
	}

	var items []T
	if strings.HasPrefix(raw, "[") {
		// Pre-envelope data was a bare JSON array.
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("failed to decode legacy array: %w", err)
		}
	} else {
		var env envelope[T]
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("failed to decode envelope: %w", err)
		}
		if env.Version != SchemaVersion {
			return nil, fmt.Errorf("%w: version %d", ErrUnknownSchema, env.Version)
		}
		items = env.Items
	}

	items = c.dedupe(items)
	if c.def.Normalize != nil {
		items = c.def.Normalize(items)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// dedupe drops empty and repeated ids, keeping the first occurrence.
func (c *Collection[T]) dedupe(items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		id := c.def.ID(it)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Save writes items to storage. Failures are logged and otherwise ignored.
// Cancellation of ctx does not abort the write.
func (c *Collection[T]) Save(ctx context.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(envelope[T]{Version: SchemaVersion, Items: items})
	if err != nil {
		c.fault("save", fmt.Errorf("failed to encode: %w", err))
		return
	}
	if err := c.store.Set(context.WithoutCancel(ctx), c.def.Key, string(data)); err != nil {
		c.fault("save", err)
	}
}

// Replace swaps the whole list and persists it.
func (c *Collection[T]) Replace(ctx context.Context, items []T) {
	c.Mutate(ctx, "replace", func([]T) ([]T, bool) {
		return c.dedupe(items), true
	})
}

// Mutate runs fn on a copy of the current list under the write lock. When fn
// reports a change, its result becomes the new list and is persisted before
// the lock is released; subscribers are notified afterwards.
func (c *Collection[T]) Mutate(ctx context.Context, op string, fn func(current []T) ([]T, bool)) {
	c.mu.Lock()
	next, changed := fn(slices.Clone(c.items))
	if !changed {
		c.mu.Unlock()
		return
	}
	if next == nil {
		next = []T{}
	}
	c.items = next
	c.Save(ctx, next)
	snapshot := slices.Clone(next)
	c.mu.Unlock()

	c.observer.ObserveMutation(c.def.Name, op)
	c.publish(snapshot)
}

// Clear empties the collection and removes its storage key.
func (c *Collection[T]) Clear(ctx context.Context) {
	c.mu.Lock()
	c.items = []T{}
	if err := c.store.Delete(context.WithoutCancel(ctx), c.def.Key); err != nil {
		c.fault("delete", err)
	}
	c.mu.Unlock()

	c.observer.ObserveMutation(c.def.Name, "clear")
	c.publish([]T{})
}

// Items returns a copy of the list in insertion order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Contains reports whether an item with the given id is present.
func (c *Collection[T]) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return indexOf(c.items, c.def.ID, id) >= 0
}

// Subscribe registers fn to receive the list after every mutation. The
// returned function removes the subscription.
func (c *Collection[T]) Subscribe(fn func([]T)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Collection[T]) publish(items []T) {
	c.subMu.Lock()
	fns := make([]func([]T), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(slices.Clone(items))
	}
}

func (c *Collection[T]) fault(op string, err error) {
	c.logger.Warn("collection storage fault", "op", op, "error", err)
	c.observer.ObserveStorageFault(c.def.Name, op)
}

func indexOf[T any](items []T, id func(T) string, want string) int {
	return slices.IndexFunc(items, func(it T) bool { return id(it) == want })
}
