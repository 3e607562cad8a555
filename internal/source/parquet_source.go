package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
	"github.com/shopspring/decimal"
)

// Sides and position types as written by the trading engine.
const (
	sideBuy       = "BUY"
	sideSell      = "SELL"
	positionLong  = "LONG"
	positionShort = "SHORT"
)

// fill is one executed order row of an engine trades file.
type fill struct {
	orderID      string
	symbol       string
	side         string
	quantity     float64
	pnl          float64
	executedAt   time.Time
	positionType string
}

// ParquetTradeSource reads an engine trades.parquet file and folds the fills
// into open and close events per symbol and position side.
//
// A trade opens on the fill that takes a flat position non-zero and closes on
// the fill that brings it back to zero. Its P&L is the sum of the realized
// pnl of the fills in between.
type ParquetTradeSource struct {
	path    string
	symbols []string
	sq      squirrel.StatementBuilderType
}

// ParquetOption configures a ParquetTradeSource.
type ParquetOption func(*ParquetTradeSource)

// WithSymbols restricts the source to the given symbols.
func WithSymbols(symbols ...string) ParquetOption {
	return func(p *ParquetTradeSource) {
		p.symbols = symbols
	}
}

// NewParquetTradeSource creates a source over the parquet file at path.
func NewParquetTradeSource(path string, opts ...ParquetOption) *ParquetTradeSource {
	p := &ParquetTradeSource{
		path:    path,
		symbols: nil,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ReadEvents loads all fills and converts them to lifecycle events.
func (p *ParquetTradeSource) ReadEvents(ctx context.Context) ([]types.TradeEvent, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "trades file %s not found", p.path)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}
	defer db.Close()

	fills, err := p.readFills(ctx, db)
	if err != nil {
		return nil, err
	}

	return foldFills(fills), nil
}

//nolint:funcorder // helper method used by ReadEvents
func (p *ParquetTradeSource) readFills(ctx context.Context, db *sql.DB) ([]fill, error) {
	from := fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(p.path, "'", "''"))

	positionColumn, err := p.positionColumn(ctx, db, from)
	if err != nil {
		return nil, err
	}

	builder := p.sq.
		Select("order_id", "symbol", "order_type", "executed_qty", "COALESCE(pnl, 0)", "executed_at", positionColumn).
		From(from).
		OrderBy("executed_at ASC")

	if len(p.symbols) > 0 {
		builder = builder.Where(squirrel.Eq{"symbol": p.symbols})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trades query", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	fills := []fill{}

	for rows.Next() {
		var f fill

		if err := rows.Scan(&f.orderID, &f.symbol, &f.side, &f.quantity, &f.pnl, &f.executedAt, &f.positionType); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		fills = append(fills, f)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trades", err)
	}

	return fills, nil
}

// positionColumn returns the select expression for the position type.
// Files written before short selling existed have no position_type column
// and hold long trades only.
//
//nolint:funcorder // helper method used by readFills
func (p *ParquetTradeSource) positionColumn(ctx context.Context, db *sql.DB, from string) (string, error) {
	rows, err := db.QueryContext(ctx, "DESCRIBE SELECT * FROM "+from)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe trades file", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe trades file", err)
	}

	found := false

	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe trades file", err)
		}

		if name, ok := values[0].(string); ok && name == "position_type" {
			found = true
		}
	}

	if found {
		return "COALESCE(position_type, '" + positionLong + "')", nil
	}

	return "'" + positionLong + "'", nil
}

type openPosition struct {
	tradeID  string
	quantity decimal.Decimal
	pnl      decimal.Decimal
}

// foldFills turns fills into lifecycle events. Reducing fills without an open
// position are ignored.
func foldFills(fills []fill) []types.TradeEvent {
	events := []types.TradeEvent{}
	positions := map[string]*openPosition{}

	for _, f := range fills {
		long := f.positionType != positionShort
		key := f.symbol + "/" + f.positionType
		quantity := decimal.NewFromFloat(f.quantity)
		increasing := (long && f.side == sideBuy) || (!long && f.side == sideSell)

		position, open := positions[key]

		if increasing {
			if !open {
				position = &openPosition{
					tradeID:  f.orderID,
					quantity: decimal.Zero,
					pnl:      decimal.Zero,
				}
				positions[key] = position

				events = append(events, types.TradeEvent{
					TradeID:    f.orderID,
					Symbol:     f.symbol,
					JustOpened: true,
					Status:     types.TradeStatusOpen,
					Long:       long,
					PnL:        0,
					Timestamp:  f.executedAt,
				})
			}

			position.quantity = position.quantity.Add(quantity)

			continue
		}

		if !open {
			continue
		}

		position.quantity = position.quantity.Sub(quantity)
		position.pnl = position.pnl.Add(decimal.NewFromFloat(f.pnl))

		if position.quantity.IsPositive() {
			continue
		}

		pnl, _ := position.pnl.Float64()
		events = append(events, types.TradeEvent{
			TradeID:    position.tradeID,
			Symbol:     f.symbol,
			JustOpened: false,
			Status:     types.TradeStatusClosed,
			Long:       long,
			PnL:        pnl,
			Timestamp:  f.executedAt,
		})

		delete(positions, key)
	}

	return events
}
