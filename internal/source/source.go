// Package source provides the trade lifecycle events an analytics session consumes.
package source

import (
	"context"

	"github.com/rxtech-lab/argo-analytics/internal/types"
)

// TradeSource yields trade lifecycle events in chronological order.
type TradeSource interface {
	// ReadEvents returns every event of the source, ordered as the trades
	// opened and closed.
	ReadEvents(ctx context.Context) ([]types.TradeEvent, error)
}

// SliceTradeSource serves events held in memory.
type SliceTradeSource struct {
	events []types.TradeEvent
}

// NewSliceTradeSource creates a source over events. The slice is copied.
func NewSliceTradeSource(events []types.TradeEvent) *SliceTradeSource {
	copied := make([]types.TradeEvent, len(events))
	copy(copied, events)

	return &SliceTradeSource{
		events: copied,
	}
}

// ReadEvents returns a copy of the events.
func (s *SliceTradeSource) ReadEvents(ctx context.Context) ([]types.TradeEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]types.TradeEvent, len(s.events))
	copy(out, s.events)

	return out, nil
}
