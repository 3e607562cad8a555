package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-analytics/internal/analytics/portfolio"
	"github.com/rxtech-lab/argo-analytics/internal/analytics/session"
	"github.com/rxtech-lab/argo-analytics/internal/logger"
	"github.com/rxtech-lab/argo-analytics/internal/source"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/internal/version"
	"github.com/rxtech-lab/argo-analytics/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loadSessionConfig builds the session config from the optional config file
// and the flags that were set explicitly.
func loadSessionConfig(cmd *cli.Command) (session.Config, error) {
	config := session.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := session.LoadConfig(path)
		if err != nil {
			return session.Config{}, err
		}

		config = loaded
	}

	if cmd.IsSet("filter") {
		config.Filter = types.TradeFilter(cmd.String("filter"))
	}

	if cmd.IsSet("recompute-every-trade") {
		config.RecomputeEveryTrade = cmd.Bool("recompute-every-trade")
	}

	if cmd.IsSet("builtin-print") {
		config.UseBuiltinPrint = cmd.Bool("builtin-print")
	}

	if err := config.Validate(); err != nil {
		return session.Config{}, err
	}

	return config, nil
}

// statsPath returns where the statistics of one session are written.
// With a single session the path is used as is; otherwise the key is
// appended to the file name.
func statsPath(path, key string, multiple bool) string {
	if !multiple {
		return path
	}

	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "_" + key + ext
}

// printSessions writes a heading, a summary line and the report of every session.
func printSessions(w io.Writer, sessions map[string]*session.Session) error {
	for _, key := range portfolio.Keys(sessions) {
		s := sessions[key]
		stats := s.Stats()

		fmt.Fprintln(w, TitleStyle.Render(key))

		summary := fmt.Sprintf("closed %d", stats.All.Trades.Closed)
		if stats.All.PnL.Total.IsSome() {
			summary += "  pnl " + FormatPnLWithIndicator(stats.All.PnL.Total.Unwrap())
		}

		fmt.Fprintln(w, HelpStyle.Render(summary))

		if err := s.Print(w); err != nil {
			return err
		}
	}

	return nil
}

// analyzeAction is the core logic executed by the CLI command.
// It reads the trades file, replays it through the analytics sessions and
// prints the reports.
func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	level := zapcore.InfoLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	config, err := loadSessionConfig(cmd)
	if err != nil {
		return err
	}

	tradesPath := cmd.String("trades")
	snapshotsPath := cmd.String("snapshots-output")
	statsOutput := cmd.String("stats-output")

	opts := []portfolio.Option{}

	if snapshotsPath != "" {
		if !config.RecomputeEveryTrade {
			appLogger.Info("Snapshots requested, enabling recompute after every trade")

			config.RecomputeEveryTrade = true
		}

		snapshots := writer.NewSnapshotWriter(snapshotsPath)
		if err := snapshots.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize snapshot writer: %w", err)
		}
		defer snapshots.Close()

		opts = append(opts, portfolio.WithSnapshotSink(snapshots))
	}

	var sourceOpts []source.ParquetOption
	if symbols := cmd.StringSlice("symbol"); len(symbols) > 0 {
		sourceOpts = append(sourceOpts, source.WithSymbols(symbols...))
	}

	events, err := source.NewParquetTradeSource(tradesPath, sourceOpts...).ReadEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to read trades: %w", err)
	}

	appLogger.Info("Trades loaded",
		zap.String("path", tradesPath),
		zap.Int("events", len(events)),
	)

	bar := progressbar.Default(int64(len(events)))
	bar.Describe(fmt.Sprintf("Analyzing %s", filepath.Base(tradesPath)))
	opts = append(opts, portfolio.WithProgress(func() { _ = bar.Add(1) }))

	runner := portfolio.NewRunner(portfolio.Config{
		Session:        config,
		PerSymbol:      cmd.Bool("per-symbol"),
		MaxConcurrency: int(cmd.Int("concurrency")),
	}, appLogger, opts...)

	sessions, err := runner.Run(ctx, source.NewSliceTradeSource(events))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	_ = bar.Finish()

	if err := printSessions(os.Stdout, sessions); err != nil {
		return err
	}

	if statsOutput != "" {
		for _, key := range portfolio.Keys(sessions) {
			path := statsPath(statsOutput, key, len(sessions) > 1)
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create stats directory: %w", err)
			}

			if err := types.WriteAggregateStats(path, sessions[key].Stats()); err != nil {
				return err
			}

			appLogger.Info("Statistics written", zap.String("session", key), zap.String("path", path))
		}
	}

	return nil
}

// newCommand defines the CLI application.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Usage:   "Compute trade performance statistics from an engine trades file",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "trades",
				Aliases:  []string{"t"},
				Usage:    "Path to the trades parquet file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "filter",
				Aliases:  []string{"f"},
				Usage:    fmt.Sprintf("Trades to analyze (%s)", strings.Join(types.AllTradeFilters, ", ")),
				Value:    string(types.TradeFilterAll),
				Required: false,
			},
			&cli.BoolFlag{
				Name:     "recompute-every-trade",
				Usage:    "Recompute statistics after every closed trade",
				Required: false,
			},
			&cli.BoolFlag{
				Name:     "builtin-print",
				Usage:    "Print the raw statistics instead of the table",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to a session config YAML file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "stats-output",
				Aliases:  []string{"o"},
				Usage:    "Write the final statistics to this YAML file",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "snapshots-output",
				Usage:    "Write per-trade statistics snapshots to this parquet file",
				Required: false,
			},
			&cli.BoolFlag{
				Name:     "per-symbol",
				Usage:    "Analyze each symbol in its own session",
				Required: false,
			},
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Only analyze these symbols",
				Required: false,
			},
			&cli.IntFlag{
				Name:     "concurrency",
				Usage:    "Sessions replayed in parallel (0 uses the CPU count)",
				Value:    0,
				Required: false,
			},
			&cli.BoolFlag{
				Name:     "verbose",
				Usage:    "Log every recorded trade",
				Required: false,
			},
		},
		Action: analyzeAction, // Assign the action function
	}
}

func main() {
	// Run the CLI application
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
