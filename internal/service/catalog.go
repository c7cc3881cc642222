package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estateflow/internal/model"
)

// ErrCatalogNotConfigured is returned by a source that lacks the settings it
// needs (e.g. an API key).
var ErrCatalogNotConfigured = errors.New("catalog source not configured")

// CatalogSource supplies the listing catalog.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]model.Property, error)
}

// StaticSource serves a fixed list.
type StaticSource []model.Property

func (s StaticSource) FetchCatalog(context.Context) ([]model.Property, error) {
	out := make([]model.Property, len(s))
	copy(out, s)
	return out, nil
}

// FallbackSource reads from Primary and switches to Fallback when Primary
// fails.
type FallbackSource struct {
	Primary  CatalogSource
	Fallback CatalogSource
	Logger   *slog.Logger
}

func (s *FallbackSource) FetchCatalog(ctx context.Context) ([]model.Property, error) {
	items, err := s.Primary.FetchCatalog(ctx)
	if err == nil {
		return items, nil
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("catalog source failed, using fallback data", "error", err)

	items, fallbackErr := s.Fallback.FetchCatalog(ctx)
	if fallbackErr != nil {
		return nil, errors.Join(err, fallbackErr)
	}
	return items, nil
}

// Catalog holds the current catalog snapshot. Readers never wait on a
// refresh: the snapshot is swapped in whole once a fetch completes.
type Catalog struct {
	source CatalogSource
	logger *slog.Logger

	mu          sync.RWMutex
	items       []model.Property
	byID        map[string]int
	lastRefresh time.Time
	lastErr     error
}

// NewCatalog creates an empty catalog backed by source.
func NewCatalog(source CatalogSource, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source: source,
		logger: logger.With("component", "catalog"),
		items:  []model.Property{},
		byID:   map[string]int{},
	}
}

// Refresh fetches the catalog and swaps it in. On error the previous
// snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	start := time.Now()
	items, err := c.source.FetchCatalog(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Warn("catalog refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("failed to refresh catalog: %w", err)
	}

	byID := make(map[string]int, len(items))
	kept := make([]model.Property, 0, len(items))
	for _, p := range items {
		if p.ID == "" {
			continue
		}
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = len(kept)
		kept = append(kept, p)
	}

	c.mu.Lock()
	c.items = kept
	c.byID = byID
	c.lastRefresh = time.Now()
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.Info("catalog refreshed", "properties", len(kept), "took", time.Since(start))
	return nil
}

// Run refreshes every interval until ctx is done.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Refresh(ctx)
		}
	}
}

// Snapshot returns the current catalog. The slice is shared and must not be
// modified.
func (c *Catalog) Snapshot() []model.Property {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

// Get looks a property up by id.
func (c *Catalog) Get(id string) (model.Property, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return model.Property{}, false
	}
	return c.items[i], true
}

// Len returns the number of properties in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Status reports when the catalog was last refreshed and the last error.
func (c *Catalog) Status() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh, c.lastErr
}
