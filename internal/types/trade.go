package types

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
)

var validate = validator.New()

// TradeStatus is the lifecycle state reported by the execution engine.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// TradeEvent is a single trade lifecycle notification from the execution engine.
// The engine emits one event with JustOpened set when a trade opens and exactly
// one event with Status == TradeStatusClosed once the trade is closed.
type TradeEvent struct {
	// TradeID identifies the round trip the event belongs to.
	TradeID string `yaml:"trade_id" json:"trade_id" csv:"trade_id"`
	// Symbol of the traded instrument.
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	// JustOpened is true exactly once, on the event that opens the trade.
	JustOpened bool `yaml:"just_opened" json:"just_opened" csv:"just_opened"`
	// Status is OPEN until the engine reports the trade closed.
	Status TradeStatus `yaml:"status" json:"status" csv:"status" validate:"required,oneof=OPEN CLOSED"`
	// Long is the trade direction. Only used for filtering.
	Long bool `yaml:"long" json:"long" csv:"long"`
	// PnL is the net profit or loss including transaction costs.
	// Only meaningful when Status is CLOSED.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	// Timestamp is when the event happened. For closed trades this is the close time.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

// Validate checks the event carries a symbol, a known status and a finite P&L.
func (e TradeEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTradeEvent, "invalid trade event", err)
	}

	if math.IsNaN(e.PnL) || math.IsInf(e.PnL, 0) {
		return errors.Newf(errors.ErrCodeInvalidTradeEvent, "invalid trade event: pnl must be finite, got %v", e.PnL)
	}

	return nil
}

// IsClosed reports whether the event closes a trade.
func (e TradeEvent) IsClosed() bool {
	return !e.JustOpened && e.Status == TradeStatusClosed
}

// Outcome returns the closed trade carried by the event.
func (e TradeEvent) Outcome() TradeOutcome {
	return TradeOutcome{
		PnL:      e.PnL,
		ClosedAt: e.Timestamp,
	}
}

// TradeOutcome is one closed trade.
type TradeOutcome struct {
	// PnL is the signed net profit after costs.
	PnL float64 `yaml:"pnl" json:"pnl"`
	// ClosedAt is the close timestamp.
	ClosedAt time.Time `yaml:"closed_at" json:"closed_at"`
}

// Won reports whether the outcome counts as a win. Break-even trades are wins.
func (o TradeOutcome) Won() bool {
	return o.PnL >= 0
}

// TradeFilter selects which trades a session records.
type TradeFilter string

const (
	TradeFilterAll   TradeFilter = "all"
	TradeFilterLong  TradeFilter = "long"
	TradeFilterShort TradeFilter = "short"
)

// AllTradeFilters lists every accepted filter value.
var AllTradeFilters = []string{string(TradeFilterAll), string(TradeFilterLong), string(TradeFilterShort)}

// Matches reports whether the event passes the filter.
func (f TradeFilter) Matches(event TradeEvent) bool {
	switch f {
	case TradeFilterAll:
		return true
	case TradeFilterLong:
		return event.Long
	case TradeFilterShort:
		return !event.Long
	default:
		return false
	}
}

// TableLabel is the word used in report titles for this filter.
func (f TradeFilter) TableLabel() string {
	switch f {
	case TradeFilterLong:
		return "LONG"
	case TradeFilterShort:
		return "SHORT"
	default:
		return "TRADES"
	}
}
