// Package session coordinates trade lifecycle notifications into streak
// tracking, metric computation and the final report.
package session

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-analytics/internal/analytics/metrics"
	"github.com/rxtech-lab/argo-analytics/internal/analytics/report"
	"github.com/rxtech-lab/argo-analytics/internal/analytics/streak"
	"github.com/rxtech-lab/argo-analytics/internal/logger"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
	"go.uber.org/zap"
)

// SnapshotSink receives the statistics recomputed after a closed trade.
type SnapshotSink interface {
	Write(runID string, tradeIndex int, stats types.AggregateStats) error
}

// Option configures a Session.
type Option func(*Session)

// WithSnapshotSink publishes every per-trade recompute to sink.
// It has no effect unless RecomputeEveryTrade is set.
func WithSnapshotSink(sink SnapshotSink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithSymbol tags the session with the instrument it analyzes.
func WithSymbol(symbol string) Option {
	return func(s *Session) {
		s.symbol = symbol
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// Session accumulates closed trades for one analysis run.
type Session struct {
	id         string
	symbol     string
	config     Config
	logger     *logger.Logger
	calculator *metrics.Calculator
	renderer   *report.Renderer
	sink       SnapshotSink

	tracker  *streak.Tracker
	outcomes []types.TradeOutcome
	allPnL   []float64
	wonPnL   []float64
	lostPnL  []float64
	opened   int
	open     int

	firstDate optional.Option[time.Time]
	lastDate  optional.Option[time.Time]

	stats   types.AggregateStats
	dirty   bool
	stopped bool
	mu      sync.Mutex
}

// NewSession validates the config and creates an empty session.
func NewSession(config Config, log *logger.Logger, opts ...Option) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		return nil, errors.New(errors.ErrCodeSessionInitFailed, "logger is required")
	}

	s := &Session{
		id:         uuid.New().String(),
		symbol:     "",
		config:     config,
		logger:     log,
		calculator: metrics.NewCalculator(),
		renderer:   report.NewRenderer(config.Filter),
		sink:       nil,
		tracker:    streak.NewTracker(),
		outcomes:   []types.TradeOutcome{},
		allPnL:     []float64{},
		wonPnL:     []float64{},
		lostPnL:    []float64{},
		opened:     0,
		open:       0,
		firstDate:  optional.None[time.Time](),
		lastDate:   optional.None[time.Time](),
		stats:      types.AggregateStats{},
		dirty:      true,
		stopped:    false,
		mu:         sync.Mutex{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("Analytics session created",
		zap.String("session_id", s.id),
		zap.String("symbol", s.symbol),
		zap.String("filter", string(config.Filter)),
		zap.Bool("recompute_every_trade", config.RecomputeEveryTrade),
	)

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Symbol returns the symbol the session was created for, if any.
func (s *Session) Symbol() string {
	return s.symbol
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.config
}

// Notify records one trade lifecycle event. Events rejected by the filter and
// events that neither open nor close a trade are ignored. Malformed events
// are rejected without changing the session.
func (s *Session) Notify(event types.TradeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return errors.Newf(errors.ErrCodeSessionStopped, "session %s is stopped", s.id)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if !s.config.Filter.Matches(event) {
		return nil
	}

	if event.JustOpened {
		s.opened++
		s.open++
		s.dirty = true

		return nil
	}

	if event.Status != types.TradeStatusClosed {
		return nil
	}

	s.record(event.Outcome())

	if !s.config.RecomputeEveryTrade {
		return nil
	}

	stats := s.recompute()
	if s.sink == nil {
		return nil
	}

	if err := s.sink.Write(s.id, len(s.allPnL), stats); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to publish statistics snapshot", err)
	}

	return nil
}

// ObserveTime widens the session window to include t. The engine calls it
// once per bar so the window covers the whole replay, not just closes.
func (s *Session) ObserveTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	s.observe(t)
}

// Stats returns the current statistics, recomputing them if trades arrived
// since the last computation.
func (s *Session) Stats() types.AggregateStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty && !s.stopped {
		return s.recompute()
	}

	return s.stats
}

// Stop performs the final recompute and releases the raw sequences,
// closed trade outcomes included. The final statistics stay readable
// through Stats and Report.
func (s *Session) Stop() types.AggregateStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return s.stats
	}

	stats := s.recompute()

	s.tracker.Reset()
	s.outcomes = nil
	s.allPnL = nil
	s.wonPnL = nil
	s.lostPnL = nil
	s.stopped = true

	s.logger.Info("Analytics session stopped",
		zap.String("session_id", s.id),
		zap.String("symbol", s.symbol),
		zap.Int("closed_trades", stats.All.Trades.Closed),
	)

	return stats
}

// Reset clears all recorded state so the session can be reused.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Reset()
	s.outcomes = []types.TradeOutcome{}
	s.allPnL = []float64{}
	s.wonPnL = []float64{}
	s.lostPnL = []float64{}
	s.opened = 0
	s.open = 0
	s.firstDate = optional.None[time.Time]()
	s.lastDate = optional.None[time.Time]()
	s.stats = types.AggregateStats{}
	s.dirty = true
	s.stopped = false

	s.logger.Debug("Analytics session reset", zap.String("session_id", s.id))
}

// Outcomes returns the closed trades in close order. It is empty once the
// session is stopped.
func (s *Session) Outcomes() []types.TradeOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.TradeOutcome, len(s.outcomes))
	copy(out, s.outcomes)

	return out
}

// Report formats the current statistics as the table, or as the raw tree
// when UseBuiltinPrint is set.
func (s *Session) Report() (string, error) {
	stats := s.Stats()

	if s.config.UseBuiltinPrint {
		out, err := report.DumpBuiltin(stats)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeRenderFailed, "failed to dump statistics", err)
		}

		return out, nil
	}

	return s.renderer.Render(stats), nil
}

// Print writes the report to w.
func (s *Session) Print(w io.Writer) error {
	out, err := s.Report()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, out); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, "failed to print report", err)
	}

	return nil
}

// record appends a closed trade to the raw sequences.
//
//nolint:funcorder // helper method used by Notify
func (s *Session) record(outcome types.TradeOutcome) {
	s.outcomes = append(s.outcomes, outcome)
	s.allPnL = append(s.allPnL, outcome.PnL)

	if outcome.Won() {
		s.wonPnL = append(s.wonPnL, outcome.PnL)
	} else {
		s.lostPnL = append(s.lostPnL, outcome.PnL)
	}

	s.tracker.Record(outcome.PnL)

	if s.open > 0 {
		s.open--
	}

	s.observe(outcome.ClosedAt)
	s.dirty = true

	s.logger.Debug("Trade recorded",
		zap.String("session_id", s.id),
		zap.Float64("pnl", outcome.PnL),
		zap.Int("closed_trades", len(s.allPnL)),
	)
}

//nolint:funcorder // helper method used by ObserveTime and record
func (s *Session) observe(t time.Time) {
	if t.IsZero() {
		return
	}

	if s.firstDate.IsNone() || t.Before(s.firstDate.Unwrap()) {
		s.firstDate = optional.Some(t)
	}

	if s.lastDate.IsNone() || t.After(s.lastDate.Unwrap()) {
		s.lastDate = optional.Some(t)
	}

	s.dirty = true
}

//nolint:funcorder // helper method used by Notify, Stats and Stop
func (s *Session) recompute() types.AggregateStats {
	s.stats = s.calculator.Calculate(metrics.Input{
		AllPnL:      s.allPnL,
		WonPnL:      s.wonPnL,
		LostPnL:     s.lostPnL,
		WonRuns:     s.tracker.WonHistory(),
		LostRuns:    s.tracker.LostHistory(),
		WonCurrent:  s.tracker.Current(streak.KindWon),
		LostCurrent: s.tracker.Current(streak.KindLost),
		Opened:      s.opened,
		Open:        s.open,
		FirstDate:   s.firstDate,
		LastDate:    s.lastDate,
	})
	s.dirty = false

	s.logger.Debug("Statistics recomputed",
		zap.String("session_id", s.id),
		zap.Int("closed_trades", s.stats.All.Trades.Closed),
	)

	return s.stats
}
