// Package metrics turns the raw P&L and streak sequences of a session into AggregateStats.
package metrics

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-analytics/internal/types"
)

const daysPerYear = 365

// Input is everything the calculator needs. It is the full retained state of a
// session, not a delta.
type Input struct {
	// AllPnL holds every closed trade's P&L in close order.
	AllPnL []float64
	// WonPnL holds the P&L values >= 0.
	WonPnL []float64
	// LostPnL holds the P&L values < 0.
	LostPnL []float64
	// WonRuns and LostRuns are the completed run lengths per kind.
	WonRuns  []int
	LostRuns []int
	// WonCurrent and LostCurrent are the open run lengths.
	WonCurrent  int
	LostCurrent int
	// Opened is the number of trades opened; Open the number still open.
	Opened int
	Open   int
	// FirstDate and LastDate bound the session window.
	FirstDate optional.Option[time.Time]
	LastDate  optional.Option[time.Time]
}

// Calculator computes AggregateStats. It holds no state; every call
// recomputes the whole tree from the input.
type Calculator struct{}

// NewCalculator creates a new metrics calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate computes the full statistics tree. With no closed trades every
// derived field is undefined.
func (c *Calculator) Calculate(in Input) types.AggregateStats {
	stats := types.AggregateStats{}

	stats.All.Trades = types.AllTrades{
		Total:  in.Opened,
		Open:   in.Open,
		Closed: len(in.AllPnL),
	}
	stats.Won.Trades.Closed = len(in.WonPnL)
	stats.Lost.Trades.Closed = len(in.LostPnL)
	stats.Won.Streak.Current = in.WonCurrent
	stats.Lost.Streak.Current = in.LostCurrent

	if in.FirstDate.IsSome() {
		first := in.FirstDate.Unwrap()
		stats.All.FirstTradingDate = &first
	}

	if in.LastDate.IsSome() {
		last := in.LastDate.Unwrap()
		stats.All.LastTradingDate = &last
	}

	if len(in.AllPnL) == 0 {
		return stats
	}

	allClosed := len(in.AllPnL)
	stats.All.PnL.Total = types.SomeMetric(Sum(in.AllPnL))
	stats.All.PnL.Average = metric(Mean(in.AllPnL))

	stats.Won.Trades.Percent = ratio(float64(len(in.WonPnL))*100, float64(allClosed))
	stats.Lost.Trades.Percent = ratio(float64(len(in.LostPnL))*100, float64(allClosed))

	// A kind with no trades keeps undefined P&L and streak summaries even if
	// its run history holds the first-trade 0 entry.
	if len(in.WonPnL) > 0 {
		stats.Won.PnL = kindPnl(in.WonPnL, Max)
		stats.Won.Streak = kindStreak(in.WonRuns, in.WonCurrent)
	}

	if len(in.LostPnL) > 0 {
		stats.Lost.PnL = kindPnl(in.LostPnL, Min)
		stats.Lost.Streak = kindStreak(in.LostRuns, in.LostCurrent)
	}

	ratios := &stats.All.Stats
	ratios.WinRate = stats.Won.Trades.Percent

	if len(in.WonPnL) > 0 && len(in.LostPnL) > 0 {
		// The run count is the number of completed won runs only.
		stats.All.Streak.ZScore = ZScore(len(in.WonPnL), len(in.LostPnL), len(in.WonRuns))

		ratios.ProfitFactor = ratio(stats.Won.PnL.Total.Unwrap(), -stats.Lost.PnL.Total.Unwrap())
		ratios.WinFactor = ratio(float64(len(in.WonPnL)), float64(len(in.LostPnL)))

		allAvg := stats.All.PnL.Average.Unwrap()
		wonAvg := stats.Won.PnL.Average.Unwrap()
		lostAvg := stats.Lost.PnL.Average.Unwrap()

		ratios.KellyPercent = ratio(allAvg*100, wonAvg)
		ratios.RewardRiskRatio = ratio(wonAvg, -lostAvg)
		ratios.ExpectancyPercentEstimated = ratio(allAvg*100, -lostAvg)
	}

	if ratios.KellyPercent.IsSome() && ratios.ExpectancyPercentEstimated.IsSome() {
		perTrade := (ratios.KellyPercent.Unwrap() / 100) * (ratios.ExpectancyPercentEstimated.Unwrap() / 100) * 100
		ratios.PerTradeOpportunityPercent = metric(perTrade, true)

		ratios.TradesPerYear = tradesPerYear(allClosed, in.FirstDate, in.LastDate)
		if ratios.TradesPerYear.IsSome() {
			perYear := ratios.TradesPerYear.Unwrap()
			ratios.AnnualOpportunityPercent = metric(perYear*perTrade, true)
			ratios.AnnualOpportunityCompoundedPercent = metric((math.Pow(1+perTrade/100, perYear)-1)*100, true)
		}
	}

	return stats
}

// ZScore is the Wald-Wolfowitz runs-test statistic for the given win, loss
// and run counts. It is undefined when the standard deviation is zero or
// not real.
func ZScore(wins, losses, streaks int) types.Metric {
	n := float64(wins + losses)
	if n <= 1 {
		return types.NoMetric()
	}

	x := 2 * float64(wins) * float64(losses)

	radicand := x * (x - n) / (n - 1)
	if radicand <= 0 || math.IsNaN(radicand) {
		return types.NoMetric()
	}

	return metric((n*(float64(streaks)-0.5)-x)/math.Sqrt(radicand), true)
}

// DaysElapsed is the whole number of days between first and last.
func DaysElapsed(first, last time.Time) int {
	return int(math.Floor(last.Sub(first).Hours() / 24))
}

// tradesPerYear is undefined when the window is missing or shorter than a day.
func tradesPerYear(closed int, first, last optional.Option[time.Time]) types.Metric {
	if first.IsNone() || last.IsNone() {
		return types.NoMetric()
	}

	days := DaysElapsed(first.Unwrap(), last.Unwrap())
	if days <= 0 {
		return types.NoMetric()
	}

	return metric(float64(closed)*daysPerYear/float64(days), true)
}

func kindPnl(values []float64, extreme func([]float64) (float64, bool)) types.KindPnl {
	return types.KindPnl{
		Total:   types.SomeMetric(Sum(values)),
		Average: metric(Mean(values)),
		Median:  metric(Median(values)),
		Max:     metric(extreme(values)),
	}
}

// kindStreak summarizes completed runs; the open run only shows up in Current.
func kindStreak(runs []int, current int) types.KindStreak {
	result := types.KindStreak{Current: current}
	if len(runs) == 0 {
		return result
	}

	lengths := toFloats(runs)
	result.Max = metric(Max(lengths))
	result.Average = metric(Mean(lengths))

	if median, ok := Median(lengths); ok {
		result.Median = types.SomeMetric(math.Trunc(median))
	}

	return result
}
