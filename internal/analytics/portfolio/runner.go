// Package portfolio replays a trade source through analytics sessions,
// one private session per symbol.
package portfolio

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"

	"github.com/rxtech-lab/argo-analytics/internal/analytics/session"
	"github.com/rxtech-lab/argo-analytics/internal/logger"
	"github.com/rxtech-lab/argo-analytics/internal/source"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CombinedKey is the session key used when trades are not split by symbol.
const CombinedKey = "ALL"

// Config configures a Runner.
type Config struct {
	// Session is applied to every session the runner creates.
	Session session.Config
	// PerSymbol runs one session per symbol instead of a single combined one.
	PerSymbol bool
	// MaxConcurrency bounds the sessions replayed at once. Zero uses the CPU count.
	MaxConcurrency int
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Session:        session.DefaultConfig(),
		PerSymbol:      false,
		MaxConcurrency: 0,
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithSnapshotSink attaches sink to every session.
// The sink must be safe for concurrent use.
func WithSnapshotSink(sink session.SnapshotSink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// WithProgress registers a callback invoked after each delivered event.
// It is called from several goroutines.
func WithProgress(fn func()) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// Runner groups events by symbol and replays each group through its own session.
// Sessions share no state, so groups are replayed in parallel.
type Runner struct {
	config   Config
	logger   *logger.Logger
	sink     session.SnapshotSink
	progress func()
}

// NewRunner creates a new Runner.
func NewRunner(config Config, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		config:   config,
		logger:   log,
		sink:     nil,
		progress: nil,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run reads all events from src and returns the stopped sessions keyed by
// symbol, or by CombinedKey when PerSymbol is off.
func (r *Runner) Run(ctx context.Context, src source.TradeSource) (map[string]*session.Session, error) {
	events, err := src.ReadEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade events: %w", err)
	}

	groups, keys := r.group(events)

	sessions := make(map[string]*session.Session, len(keys))

	for _, key := range keys {
		opts := []session.Option{session.WithSymbol(key)}
		if r.sink != nil {
			opts = append(opts, session.WithSnapshotSink(r.sink))
		}

		s, err := session.NewSession(r.config.Session, r.logger, opts...)
		if err != nil {
			return nil, err
		}

		sessions[key] = s
	}

	limit := r.config.MaxConcurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, key := range keys {
		s := sessions[key]
		group := groups[key]

		g.Go(func() error {
			return r.replay(gctx, s, group)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("Replay finished",
		zap.Int("events", len(events)),
		zap.Int("sessions", len(sessions)),
	)

	return sessions, nil
}

// Keys returns the session keys of a Run result in sorted order.
func Keys(sessions map[string]*session.Session) []string {
	return slices.Sorted(maps.Keys(sessions))
}

// group splits events by session key, keeping their order. keys lists the
// groups in order of first appearance.
//
//nolint:funcorder // helper method used by Run
func (r *Runner) group(events []types.TradeEvent) (map[string][]types.TradeEvent, []string) {
	groups := map[string][]types.TradeEvent{}
	keys := []string{}

	if !r.config.PerSymbol {
		groups[CombinedKey] = events
		keys = append(keys, CombinedKey)

		return groups, keys
	}

	for _, e := range events {
		if _, ok := groups[e.Symbol]; !ok {
			keys = append(keys, e.Symbol)
		}

		groups[e.Symbol] = append(groups[e.Symbol], e)
	}

	return groups, keys
}

// replay delivers events to s in order, then stops it.
// Every event time widens the session window.
//
//nolint:funcorder // helper method used by Run
func (r *Runner) replay(ctx context.Context, s *session.Session, events []types.TradeEvent) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.ObserveTime(e.Timestamp)

		if err := s.Notify(e); err != nil {
			return fmt.Errorf("session %s: %w", s.Symbol(), err)
		}

		if r.progress != nil {
			r.progress()
		}
	}

	s.Stop()

	return nil
}
