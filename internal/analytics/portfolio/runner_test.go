package portfolio

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-analytics/internal/analytics/session"
	"github.com/rxtech-lab/argo-analytics/internal/logger"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"github.com/rxtech-lab/argo-analytics/mocks"
	"github.com/rxtech-lab/argo-analytics/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RunnerTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

func (suite *RunnerTestSuite) generate(symbols ...string) []types.TradeEvent {
	gen := mocks.NewTradeGenerator(42)
	config := mocks.DefaultConfig()
	config.Count = 200

	return gen.GenerateMultiSymbol(symbols, config)
}

func closedCount(events []types.TradeEvent, symbol string) int {
	count := 0

	for _, e := range events {
		if e.IsClosed() && (symbol == "" || e.Symbol == symbol) {
			count++
		}
	}

	return count
}

func (suite *RunnerTestSuite) TestRunPerSymbol() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	events := suite.generate("AAPL", "MSFT", "SPY")

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(events, nil).Times(1)

	config := DefaultConfig()
	config.PerSymbol = true
	config.MaxConcurrency = 2

	var delivered atomic.Int64
	runner := NewRunner(config, suite.logger, WithProgress(func() { delivered.Add(1) }))

	sessions, err := runner.Run(context.Background(), mockSource)
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT", "SPY"}, Keys(sessions))
	suite.Equal(int64(len(events)), delivered.Load())

	for _, symbol := range []string{"AAPL", "MSFT", "SPY"} {
		s := sessions[symbol]
		stats := s.Stats()

		suite.Equal(symbol, s.Symbol())
		suite.Equal(closedCount(events, symbol), stats.All.Trades.Closed)
		suite.Equal(stats.All.Trades.Closed, stats.All.Trades.Total)
		suite.Equal(0, stats.All.Trades.Open)
		suite.Equal(stats.All.Trades.Closed, stats.Won.Trades.Closed+stats.Lost.Trades.Closed)
		suite.Require().NotNil(stats.All.FirstTradingDate)
	}
}

func (suite *RunnerTestSuite) TestRunCombinedMatchesSingleSession() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	events := suite.generate("AAPL", "MSFT")

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(events, nil)

	sessions, err := NewRunner(DefaultConfig(), suite.logger).Run(context.Background(), mockSource)
	suite.Require().NoError(err)
	suite.Equal([]string{CombinedKey}, Keys(sessions))

	direct, err := session.NewSession(session.DefaultConfig(), suite.logger)
	suite.Require().NoError(err)

	for _, e := range events {
		direct.ObserveTime(e.Timestamp)
		suite.Require().NoError(direct.Notify(e))
	}

	suite.Equal(direct.Stats(), sessions[CombinedKey].Stats())
	suite.Equal(closedCount(events, ""), sessions[CombinedKey].Stats().All.Trades.Closed)
}

func (suite *RunnerTestSuite) TestRunAppliesFilter() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	events := suite.generate("AAPL")

	longClosed := 0

	for _, e := range events {
		if e.IsClosed() && e.Long {
			longClosed++
		}
	}

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(events, nil)

	config := DefaultConfig()
	config.Session.Filter = types.TradeFilterLong

	sessions, err := NewRunner(config, suite.logger).Run(context.Background(), mockSource)
	suite.Require().NoError(err)
	suite.Equal(longClosed, sessions[CombinedKey].Stats().All.Trades.Closed)
}

func (suite *RunnerTestSuite) TestRunPublishesSnapshots() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	events := []types.TradeEvent{
		{TradeID: "1", Symbol: "AAPL", JustOpened: true, Status: types.TradeStatusOpen, Long: true, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{TradeID: "1", Symbol: "AAPL", Status: types.TradeStatusClosed, Long: true, PnL: 10, Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{TradeID: "2", Symbol: "AAPL", JustOpened: true, Status: types.TradeStatusOpen, Long: true, Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		{TradeID: "2", Symbol: "AAPL", Status: types.TradeStatusClosed, Long: true, PnL: -4, Timestamp: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)},
	}

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(events, nil)

	mockSink := mocks.NewMockSnapshotSink(ctrl)
	gomock.InOrder(
		mockSink.EXPECT().Write(gomock.Any(), 1, gomock.Any()).Return(nil),
		mockSink.EXPECT().Write(gomock.Any(), 2, gomock.Any()).DoAndReturn(
			func(_ string, _ int, stats types.AggregateStats) error {
				suite.InDelta(6.0, stats.All.PnL.Total.Unwrap(), 1e-9)

				return nil
			}),
	)

	config := DefaultConfig()
	config.Session.RecomputeEveryTrade = true

	_, err := NewRunner(config, suite.logger, WithSnapshotSink(mockSink)).Run(context.Background(), mockSource)
	suite.Require().NoError(err)
}

func (suite *RunnerTestSuite) TestRunSourceError() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(nil, errors.New(errors.ErrCodeDataNotFound, "no trades"))

	sessions, err := NewRunner(DefaultConfig(), suite.logger).Run(context.Background(), mockSource)
	suite.Nil(sessions)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *RunnerTestSuite) TestRunInvalidConfig() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(suite.generate("AAPL"), nil)

	config := DefaultConfig()
	config.Session.Filter = "nope"

	_, err := NewRunner(config, suite.logger).Run(context.Background(), mockSource)
	suite.True(errors.IsConfigurationError(err))
}

func (suite *RunnerTestSuite) TestRunCancelled() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(suite.generate("AAPL"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(DefaultConfig(), suite.logger).Run(ctx, mockSource)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *RunnerTestSuite) TestSinkFailureStopsRun() {
	ctrl := gomock.NewController(suite.T())
	defer ctrl.Finish()

	mockSource := mocks.NewMockTradeSource(ctrl)
	mockSource.EXPECT().ReadEvents(gomock.Any()).Return(suite.generate("AAPL"), nil)

	mockSink := mocks.NewMockSnapshotSink(ctrl)
	mockSink.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	config := DefaultConfig()
	config.Session.RecomputeEveryTrade = true

	_, err := NewRunner(config, suite.logger, WithSnapshotSink(mockSink)).Run(context.Background(), mockSource)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeWriteFailed))
	suite.Contains(err.Error(), "disk full")
}
