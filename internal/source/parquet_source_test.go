package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParquetTradeSourceTestSuite struct {
	suite.Suite
	tempDir string
}

func (s *ParquetTradeSourceTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "parquet_source_test_*")
	s.Require().NoError(err)
	s.tempDir = tempDir
}

func (s *ParquetTradeSourceTestSuite) TearDownTest() {
	if s.tempDir != "" {
		os.RemoveAll(s.tempDir)
	}
}

func TestParquetTradeSourceTestSuite(t *testing.T) {
	suite.Run(t, new(ParquetTradeSourceTestSuite))
}

var day0 = time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)

type row struct {
	orderID      string
	symbol       string
	side         string
	qty          float64
	pnl          float64
	at           time.Time
	positionType string
}

// writeTrades creates a trades parquet file with the engine's trades schema.
func (s *ParquetTradeSourceTestSuite) writeTrades(name string, withPositionType bool, rows []row) string {
	path := filepath.Join(s.tempDir, name)

	db, err := sql.Open("duckdb", ":memory:")
	s.Require().NoError(err)
	defer db.Close()

	positionColumn := ""
	if withPositionType {
		positionColumn = ", position_type TEXT"
	}

	_, err = db.Exec(`
		CREATE TABLE trades (
			order_id TEXT,
			symbol TEXT,
			order_type TEXT,
			quantity DOUBLE,
			price DOUBLE,
			timestamp TIMESTAMP,
			is_completed BOOLEAN,
			reason TEXT,
			message TEXT,
			strategy_name TEXT,
			executed_at TIMESTAMP,
			executed_qty DOUBLE,
			executed_price DOUBLE,
			commission DOUBLE,
			pnl DOUBLE` + positionColumn + `
		)
	`)
	s.Require().NoError(err)

	for _, r := range rows {
		args := []any{r.orderID, r.symbol, r.side, r.qty, 100.0, r.at, true, "strategy", "", "test", r.at, r.qty, 100.0, 1.0, r.pnl}
		placeholders := "?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?"

		if withPositionType {
			args = append(args, r.positionType)
			placeholders += ", ?"
		}

		_, err = db.Exec("INSERT INTO trades VALUES ("+placeholders+")", args...)
		s.Require().NoError(err)
	}

	_, err = db.Exec(fmt.Sprintf("COPY trades TO '%s' (FORMAT PARQUET)", strings.ReplaceAll(path, "'", "''")))
	s.Require().NoError(err)

	return path
}

func (s *ParquetTradeSourceTestSuite) TestPathWithQuote() {
	path := s.writeTrades("o'neil trades.parquet", true, []row{
		{"o1", "AAPL", "BUY", 10, 0, day0, "LONG"},
		{"o2", "AAPL", "SELL", 10, 3, day0.Add(time.Hour), "LONG"},
	})

	events, err := NewParquetTradeSource(path).ReadEvents(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.InDelta(3.0, events[1].PnL, 1e-9)
}

func (s *ParquetTradeSourceTestSuite) TestReadEvents() {
	path := s.writeTrades("trades.parquet", true, []row{
		{"o1", "AAPL", "BUY", 10, 0, day0, "LONG"},
		{"o2", "AAPL", "SELL", 10, 25.5, day0.Add(2 * time.Hour), "LONG"},
		{"o3", "AAPL", "SELL", 5, 0, day0.AddDate(0, 0, 1), "SHORT"},
		{"o4", "AAPL", "BUY", 5, -7, day0.AddDate(0, 0, 2), "SHORT"},
	})

	events, err := NewParquetTradeSource(path).ReadEvents(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 4)

	s.True(events[0].JustOpened)
	s.True(events[0].Long)
	s.Equal("o1", events[0].TradeID)

	s.True(events[1].IsClosed())
	s.Equal("o1", events[1].TradeID)
	s.InDelta(25.5, events[1].PnL, 1e-9)
	s.True(day0.Add(2 * time.Hour).Equal(events[1].Timestamp))

	s.True(events[2].JustOpened)
	s.False(events[2].Long)

	s.True(events[3].IsClosed())
	s.False(events[3].Long)
	s.InDelta(-7.0, events[3].PnL, 1e-9)
}

func (s *ParquetTradeSourceTestSuite) TestPartialExitsAccumulatePnL() {
	path := s.writeTrades("partial.parquet", true, []row{
		{"o1", "BTCUSDT", "BUY", 1, 0, day0, "LONG"},
		{"o2", "BTCUSDT", "BUY", 1, 0, day0.Add(time.Hour), "LONG"},
		{"o3", "BTCUSDT", "SELL", 0.5, 3, day0.Add(2 * time.Hour), "LONG"},
		{"o4", "BTCUSDT", "SELL", 1.5, -1, day0.Add(3 * time.Hour), "LONG"},
	})

	events, err := NewParquetTradeSource(path).ReadEvents(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.True(events[0].JustOpened)
	s.True(events[1].IsClosed())
	s.InDelta(2.0, events[1].PnL, 1e-9)
}

func (s *ParquetTradeSourceTestSuite) TestLegacyFileWithoutPositionType() {
	path := s.writeTrades("legacy.parquet", false, []row{
		{"o1", "AAPL", "BUY", 1, 0, day0, ""},
		{"o2", "AAPL", "SELL", 1, -2, day0.Add(time.Hour), ""},
	})

	events, err := NewParquetTradeSource(path).ReadEvents(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.True(events[1].Long)
	s.InDelta(-2.0, events[1].PnL, 1e-9)
}

func (s *ParquetTradeSourceTestSuite) TestWithSymbols() {
	path := s.writeTrades("symbols.parquet", true, []row{
		{"o1", "AAPL", "BUY", 1, 0, day0, "LONG"},
		{"o2", "MSFT", "BUY", 1, 0, day0.Add(time.Minute), "LONG"},
		{"o3", "AAPL", "SELL", 1, 4, day0.Add(time.Hour), "LONG"},
		{"o4", "MSFT", "SELL", 1, -4, day0.Add(2 * time.Hour), "LONG"},
	})

	events, err := NewParquetTradeSource(path, WithSymbols("MSFT")).ReadEvents(context.Background())
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	for _, event := range events {
		s.Equal("MSFT", event.Symbol)
	}
}

func (s *ParquetTradeSourceTestSuite) TestMissingFile() {
	_, err := NewParquetTradeSource(filepath.Join(s.tempDir, "missing.parquet")).ReadEvents(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (s *ParquetTradeSourceTestSuite) TestFoldFillsIgnoresOrphanExits() {
	events := foldFills([]fill{
		{orderID: "o1", symbol: "AAPL", side: sideSell, quantity: 1, pnl: 5, executedAt: day0, positionType: positionLong},
		{orderID: "o2", symbol: "AAPL", side: sideBuy, quantity: 1, executedAt: day0.Add(time.Hour), positionType: positionLong},
	})

	s.Require().Len(events, 1)
	s.True(events[0].JustOpened)
	s.Equal("o2", events[0].TradeID)
}

func (s *ParquetTradeSourceTestSuite) TestSliceTradeSource() {
	input := []types.TradeEvent{
		{TradeID: "a", Symbol: "AAPL", Status: types.TradeStatusClosed, PnL: 1},
	}
	src := NewSliceTradeSource(input)
	input[0].PnL = 100

	events, err := src.ReadEvents(context.Background())
	s.Require().NoError(err)
	s.InDelta(1.0, events[0].PnL, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.ReadEvents(ctx)
	s.ErrorIs(err, context.Canceled)
}
