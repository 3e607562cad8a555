package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-analytics/internal/version"
	"gopkg.in/yaml.v3"
)

// Metric is a statistic that may be undefined. The zero value is undefined.
// Undefined metrics marshal as null and render as "None".
type Metric struct {
	optional.Option[float64]
}

// SomeMetric returns a defined metric.
func SomeMetric(v float64) Metric {
	return Metric{Option: optional.Some(v)}
}

// NoMetric returns an undefined metric.
func NoMetric() Metric {
	return Metric{Option: optional.None[float64]()}
}

// MarshalYAML implements yaml.Marshaler.
func (m Metric) MarshalYAML() (interface{}, error) {
	if m.IsNone() {
		return nil, nil
	}

	return m.Unwrap(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Metric) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" || value.Value == "" {
		*m = NoMetric()

		return nil
	}

	var v float64
	if err := value.Decode(&v); err != nil {
		return err
	}

	*m = SomeMetric(v)

	return nil
}

// MarshalJSON implements json.Marshaler.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.IsNone() {
		return []byte("null"), nil
	}

	return json.Marshal(m.Unwrap())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = NoMetric()

		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*m = SomeMetric(v)

	return nil
}

// AllTrades counts every trade the session accepted.
type AllTrades struct {
	// Total is the number of trades opened.
	Total int `yaml:"total" json:"total"`
	// Open is the number of trades opened but not yet closed.
	Open int `yaml:"open" json:"open"`
	// Closed is the number of closed trades.
	Closed int `yaml:"closed" json:"closed"`
}

// AllPnl summarizes the P&L of every closed trade.
type AllPnl struct {
	Total   Metric `yaml:"total" json:"total"`
	Average Metric `yaml:"average" json:"average"`
}

// AllStreak holds the runs-test statistic for the whole sequence.
type AllStreak struct {
	// ZScore is the Wald-Wolfowitz runs-test statistic.
	ZScore Metric `yaml:"z_score" json:"z_score"`
}

// Ratios are the derived ratios and estimates on the all branch.
type Ratios struct {
	ProfitFactor                       Metric `yaml:"profit_factor" json:"profit_factor"`
	WinFactor                          Metric `yaml:"win_factor" json:"win_factor"`
	WinRate                            Metric `yaml:"win_rate" json:"win_rate"`
	RewardRiskRatio                    Metric `yaml:"reward_risk_ratio" json:"reward_risk_ratio"`
	ExpectancyPercentEstimated         Metric `yaml:"expectancy_percent_estimated" json:"expectancy_percent_estimated"`
	KellyPercent                       Metric `yaml:"kelly_percent" json:"kelly_percent"`
	TradesPerYear                      Metric `yaml:"trades_per_year" json:"trades_per_year"`
	PerTradeOpportunityPercent         Metric `yaml:"per_trade_opportunity_percent" json:"per_trade_opportunity_percent"`
	AnnualOpportunityPercent           Metric `yaml:"annual_opportunity_percent" json:"annual_opportunity_percent"`
	AnnualOpportunityCompoundedPercent Metric `yaml:"annual_opportunity_compounded_percent" json:"annual_opportunity_compounded_percent"`
}

// AllBranch is the "all trades" branch of AggregateStats.
type AllBranch struct {
	// FirstTradingDate is the start of the session window.
	FirstTradingDate *time.Time `yaml:"first_trading_date,omitempty" json:"first_trading_date,omitempty"`
	// LastTradingDate is the end of the session window.
	LastTradingDate *time.Time `yaml:"last_trading_date,omitempty" json:"last_trading_date,omitempty"`

	Trades AllTrades `yaml:"trades" json:"trades"`
	PnL    AllPnl    `yaml:"pnl" json:"pnl"`
	Streak AllStreak `yaml:"streak" json:"streak"`
	Stats  Ratios    `yaml:"stats" json:"stats"`
}

// KindTrades counts closed trades of one kind.
type KindTrades struct {
	Closed int `yaml:"closed" json:"closed"`
	// Percent is the share of all closed trades.
	Percent Metric `yaml:"percent" json:"percent"`
}

// KindPnl summarizes the P&L of one kind.
type KindPnl struct {
	Total   Metric `yaml:"total" json:"total"`
	Average Metric `yaml:"average" json:"average"`
	Median  Metric `yaml:"median" json:"median"`
	// Max is the most extreme value: the largest win, or the largest loss (the minimum).
	Max Metric `yaml:"max" json:"max"`
}

// KindStreak summarizes the run lengths of one kind.
// Max, Average and Median only consider completed runs.
type KindStreak struct {
	// Current is the length of the still-open run of this kind, 0 if the other kind is running.
	Current int    `yaml:"current" json:"current"`
	Max     Metric `yaml:"max" json:"max"`
	Average Metric `yaml:"average" json:"average"`
	Median  Metric `yaml:"median" json:"median"`
}

// KindBranch is the won or lost branch of AggregateStats.
type KindBranch struct {
	Trades KindTrades `yaml:"trades" json:"trades"`
	PnL    KindPnl    `yaml:"pnl" json:"pnl"`
	Streak KindStreak `yaml:"streak" json:"streak"`
}

// AggregateStats is the full statistics tree of an analytics session.
// It is recomputed from the raw trade sequence on every trigger and never patched.
type AggregateStats struct {
	All  AllBranch  `yaml:"all" json:"all"`
	Won  KindBranch `yaml:"won" json:"won"`
	Lost KindBranch `yaml:"lost" json:"lost"`
}

// statsFile is the on-disk layout of a statistics file.
type statsFile struct {
	// Version of the engine that wrote the file.
	Version        string `yaml:"version"`
	AggregateStats `yaml:",inline"`
}

// WriteAggregateStats writes the statistics to a YAML file stamped with the engine version.
func WriteAggregateStats(path string, stats AggregateStats) error {
	data, err := yaml.Marshal(statsFile{Version: version.GetVersion(), AggregateStats: stats})
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write aggregate stats to file: %w", err)
	}

	return nil
}

// ReadAggregateStats reads statistics written by WriteAggregateStats.
// Files written by an engine with a different major or minor version are rejected.
// Files without a version are accepted.
func ReadAggregateStats(path string) (AggregateStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AggregateStats{}, fmt.Errorf("failed to read aggregate stats file: %w", err)
	}

	var file statsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return AggregateStats{}, fmt.Errorf("failed to unmarshal aggregate stats: %w", err)
	}

	if file.Version != "" {
		if err := version.CheckStatsCompatibility(file.Version, version.GetVersion()); err != nil {
			return AggregateStats{}, fmt.Errorf("incompatible aggregate stats file: %w", err)
		}
	}

	return file.AggregateStats, nil
}
