package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-analytics/internal/types"
)

// TradeGenerator generates realistic trade lifecycle events for testing and benchmarking.
type TradeGenerator struct {
	rng *rand.Rand
}

// NewTradeGenerator creates a new TradeGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewTradeGenerator(seed int64) *TradeGenerator {
	return &TradeGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how trades are generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartTime is when the first trade opens
	StartTime time.Time
	// Holding is how long each trade stays open
	Holding time.Duration
	// Gap is the flat time between a close and the next open
	Gap time.Duration
	// Count is the number of round trips to generate
	Count int
	// MeanPnL is the average P&L per trade
	MeanPnL float64
	// StdDevPnL controls the spread of trade outcomes
	StdDevPnL float64
	// ShortRatio is the share of short trades (0.0 to 1.0)
	ShortRatio float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:     "TEST",
		StartTime:  time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Holding:    4 * time.Hour,
		Gap:        20 * time.Hour,
		Count:      1000,
		MeanPnL:    5,  // slight edge
		StdDevPnL:  50, // noisy outcomes
		ShortRatio: 0.3,
	}
}

// Generate creates Count round trips, each an open event followed by its close event.
// P&L values are drawn from a normal distribution.
func (g *TradeGenerator) Generate(config GeneratorConfig) []types.TradeEvent {
	events := make([]types.TradeEvent, 0, config.Count*2)
	openTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		// Using Box-Muller transform for normal distribution
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(1-u1)) * math.Cos(2*math.Pi*u2)

		pnl := roundToDecimals(config.MeanPnL+config.StdDevPnL*z, 2)
		long := g.rng.Float64() >= config.ShortRatio
		tradeID := fmt.Sprintf("%s-%d", config.Symbol, i)
		closeTime := openTime.Add(config.Holding)

		events = append(events,
			types.TradeEvent{
				TradeID:    tradeID,
				Symbol:     config.Symbol,
				JustOpened: true,
				Status:     types.TradeStatusOpen,
				Long:       long,
				PnL:        0,
				Timestamp:  openTime,
			},
			types.TradeEvent{
				TradeID:    tradeID,
				Symbol:     config.Symbol,
				JustOpened: false,
				Status:     types.TradeStatusClosed,
				Long:       long,
				PnL:        pnl,
				Timestamp:  closeTime,
			},
		)

		openTime = closeTime.Add(config.Gap)
	}

	return events
}

// GenerateMultiSymbol generates trades for multiple symbols, one symbol after another.
func (g *TradeGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) []types.TradeEvent {
	var allEvents []types.TradeEvent

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// Vary the edge and spread slightly per symbol
		config.MeanPnL = baseConfig.MeanPnL * (0.5 + g.rng.Float64())
		config.StdDevPnL = baseConfig.StdDevPnL * (0.8 + g.rng.Float64()*0.4)

		allEvents = append(allEvents, g.Generate(config)...)
	}

	return allEvents
}

// Generate10K is a convenience function to generate 10,000 round trips
// with default settings for benchmarking.
func Generate10K(symbol string) []types.TradeEvent {
	gen := NewTradeGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = 10000

	return gen.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
