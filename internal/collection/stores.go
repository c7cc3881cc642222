package collection

import (
	"context"
	"fmt"
)

// Default storage keys, compatible with data written by the browser client.
const (
	DefaultFavoritesKey  = "estateflow_favorites"
	DefaultComparisonKey = "estateflow_comparison"
	DefaultTranscriptKey = "estateflow_chat_history"
)

// Keys names the storage key of each collection.
type Keys struct {
	Favorites  string
	Comparison string
	Transcript string
}

// Stores bundles the three user collections. It is built once at startup and
// handed to whatever needs it.
type Stores struct {
	Favorites  *Favorites
	Comparison *Comparison
	Transcript *Transcript
}

// Open hydrates all collections from store. Each collection must own a
// distinct key.
func Open(ctx context.Context, store Storage, keys Keys, comparisonMax int, opts ...Option) (*Stores, error) {
	if keys.Favorites == "" {
		keys.Favorites = DefaultFavoritesKey
	}
	if keys.Comparison == "" {
		keys.Comparison = DefaultComparisonKey
	}
	if keys.Transcript == "" {
		keys.Transcript = DefaultTranscriptKey
	}
	if keys.Favorites == keys.Comparison || keys.Favorites == keys.Transcript || keys.Comparison == keys.Transcript {
		return nil, fmt.Errorf("collections must use distinct storage keys: %+v", keys)
	}

	favorites, err := NewFavorites(ctx, store, keys.Favorites, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open favorites: %w", err)
	}
	comparison, err := NewComparison(ctx, store, keys.Comparison, comparisonMax, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open comparison: %w", err)
	}
	transcript, err := NewTranscript(ctx, store, keys.Transcript, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	return &Stores{
		Favorites:  favorites,
		Comparison: comparison,
		Transcript: transcript,
	}, nil
}
