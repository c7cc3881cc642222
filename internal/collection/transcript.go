package collection

import (
	"context"

	"estateflow/internal/model"
)

// Transcript is the append-only log of assistant conversation turns.
type Transcript struct {
	c *Collection[model.Turn]
}

// NewTranscript creates the transcript stored under key.
func NewTranscript(ctx context.Context, store Storage, key string, opts ...Option) (*Transcript, error) {
	c, err := New(ctx, store, Definition[model.Turn]{
		Name: "transcript",
		Key:  key,
		ID:   model.TurnID,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &Transcript{c: c}, nil
}

// Append adds a turn at the end. A turn whose id is already present is
// ignored; corrections are new turns.
func (t *Transcript) Append(ctx context.Context, turn model.Turn) {
	t.c.Mutate(ctx, "append", func(turns []model.Turn) ([]model.Turn, bool) {
		if indexOf(turns, model.TurnID, turn.ID) >= 0 {
			return turns, false
		}
		return append(turns, turn), true
	})
}

// Clear resets the transcript to empty and drops its stored data.
func (t *Transcript) Clear(ctx context.Context) {
	t.c.Clear(ctx)
}

// Turns returns every turn in order.
func (t *Transcript) Turns() []model.Turn {
	return t.c.Items()
}

// Recent returns at most the last n turns, oldest first.
func (t *Transcript) Recent(n int) []model.Turn {
	turns := t.c.Items()
	if n <= 0 {
		return []model.Turn{}
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

func (t *Transcript) Len() int { return t.c.Len() }

// Subscribe forwards to the underlying collection.
func (t *Transcript) Subscribe(fn func([]model.Turn)) func() {
	return t.c.Subscribe(fn)
}
