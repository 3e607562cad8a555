// Package report renders AggregateStats as a two-panel box-drawn text table.
package report

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-analytics/internal/types"
	"gopkg.in/yaml.v3"
)

// RowType tags a logical row of the table.
type RowType int

const (
	RowTypeTop RowType = iota
	RowTypeTitle
	RowTypeSeparator
	RowTypeData
	RowTypeBottom
)

// Columns is the number of cells per title/data row: two columns for the
// left panel and three for the right one.
const Columns = 5

// NoneText is printed for undefined values.
const NoneText = "None"

// Row is one logical row. Cells is only used by title and data rows.
type Row struct {
	Type  RowType
	Cells [Columns]string
}

// Renderer builds the statistics table.
type Renderer struct {
	label string
}

// NewRenderer creates a renderer whose titles use the filter's label.
func NewRenderer(filter types.TradeFilter) *Renderer {
	return &Renderer{
		label: filter.TableLabel(),
	}
}

// Render formats the statistics. The same stats always produce the same bytes.
func (r *Renderer) Render(stats types.AggregateStats) string {
	return RenderRows(r.Rows(stats))
}

// Rows lays out the table content for the given statistics.
func (r *Renderer) Rows(stats types.AggregateStats) []Row {
	all := stats.All
	won := stats.Won
	lost := stats.Lost

	return []Row{
		{Type: RowTypeTop},
		title("", "ALL "+r.label, "", r.label+" WON", r.label+" LOST"),
		{Type: RowTypeSeparator},
		data("TRADES       open", FormatInt(all.Trades.Open), "TRADES          ", "", ""),
		data("closed", FormatInt(all.Trades.Closed), "closed", FormatInt(won.Trades.Closed), FormatInt(lost.Trades.Closed)),
		data("Win Factor", FormatMetric(all.Stats.WinFactor, Places(2)), "%",
			FormatMetric(won.Trades.Percent, Places(2)), FormatMetric(lost.Trades.Percent, Places(2))),
		data("Trades per year", FormatMetric(all.Stats.TradesPerYear, Places(1)), "", "", ""),
		{Type: RowTypeSeparator},
		data("PROFIT      total", FormatMetric(all.PnL.Total, Places(2)), "PROFIT     total",
			FormatMetric(won.PnL.Total, Places(2)), FormatMetric(lost.PnL.Total, Places(2))),
		data("average", FormatMetric(all.PnL.Average, Places(2)), "average",
			FormatMetric(won.PnL.Average, Places(2)), FormatMetric(lost.PnL.Average, Places(2))),
		data("Profit Factor", FormatMetric(all.Stats.ProfitFactor, Places(2)), "median",
			FormatMetric(won.PnL.Median, Places(2)), FormatMetric(lost.PnL.Median, Places(2))),
		data("Reward : Risk", FormatMetric(all.Stats.RewardRiskRatio, Places(2)), "max",
			FormatMetric(won.PnL.Max, Places(2)), FormatMetric(lost.PnL.Max, Places(2))),
		{Type: RowTypeSeparator},
		data("Kelly %", FormatMetric(all.Stats.KellyPercent, Places(1)), "STREAK   current",
			FormatInt(won.Streak.Current), FormatInt(lost.Streak.Current)),
		data("Expectancy %", FormatMetric(all.Stats.ExpectancyPercentEstimated, Places(1)), "max",
			FormatMetric(won.Streak.Max, AsIs()), FormatMetric(lost.Streak.Max, AsIs())),
		data("TO %", FormatMetric(all.Stats.PerTradeOpportunityPercent, Places(2)), "average",
			FormatMetric(won.Streak.Average, Places(2)), FormatMetric(lost.Streak.Average, Places(2))),
		data("AO %", FormatMetric(all.Stats.AnnualOpportunityPercent, Places(1)), "median",
			FormatMetric(won.Streak.Median, AsIs()), FormatMetric(lost.Streak.Median, AsIs())),
		data("AOC %", FormatMetric(all.Stats.AnnualOpportunityCompoundedPercent, Places(1)), "Z-Score",
			FormatMetric(all.Streak.ZScore, Places(1)), FormatMetric(all.Streak.ZScore, Places(1))),
		{Type: RowTypeBottom},
	}
}

// RenderRows draws the rows. Each column is as wide as its longest title or
// data cell; borders use double-line glyphs and the panels sit two spaces apart.
func RenderRows(rows []Row) string {
	widths := columnWidths(rows)

	var b strings.Builder

	for _, row := range rows {
		switch row.Type {
		case RowTypeTop:
			b.WriteString(border(widths, "╔", "╦", "╗"))
			b.WriteString("\n")
		case RowTypeSeparator:
			b.WriteString(border(widths, "╠", "╬", "╣"))
			b.WriteString("\n")
		case RowTypeBottom:
			b.WriteString(border(widths, "╚", "╩", "╝"))
		case RowTypeTitle:
			b.WriteString(line(row.Cells, widths, [Columns]align{alignCenter, alignCenter, alignCenter, alignCenter, alignCenter}))
		case RowTypeData:
			b.WriteString(line(row.Cells, widths, [Columns]align{alignRight, alignLeft, alignRight, alignLeft, alignLeft}))
		}
	}

	return b.String()
}

// Places asks FormatMetric for a fixed number of decimals.
func Places(n int) optional.Option[int] {
	return optional.Some(n)
}

// AsIs asks FormatMetric for the shortest exact representation.
func AsIs() optional.Option[int] {
	return optional.None[int]()
}

// FormatMetric renders a value with the given number of decimals, or as-is
// when places is None. Undefined values render as "None".
func FormatMetric(m types.Metric, places optional.Option[int]) string {
	if m.IsNone() {
		return NoneText
	}

	return strconv.FormatFloat(m.Unwrap(), 'f', places.TakeOr(-1), 64)
}

// FormatInt renders a count.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// DumpBuiltin renders the raw statistics tree as YAML instead of the table.
func DumpBuiltin(stats types.AggregateStats) (string, error) {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

type align int

const (
	alignLeft align = iota
	alignRight
	alignCenter
)

func title(cells ...string) Row {
	return Row{Type: RowTypeTitle, Cells: toCells(cells)}
}

func data(cells ...string) Row {
	return Row{Type: RowTypeData, Cells: toCells(cells)}
}

func toCells(cells []string) [Columns]string {
	var result [Columns]string
	copy(result[:], cells)

	return result
}

func columnWidths(rows []Row) [Columns]int {
	var widths [Columns]int

	for _, row := range rows {
		if row.Type != RowTypeTitle && row.Type != RowTypeData {
			continue
		}

		for i, cell := range row.Cells {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	return widths
}

func border(widths [Columns]int, left, cross, right string) string {
	h := func(n int) string { return strings.Repeat("═", n) }

	return left + "═" + h(widths[0]) + cross + h(widths[1]) + "═" + right +
		"  " + left + "═" + h(widths[2]) + cross + h(widths[3]) + "═" + cross + h(widths[4]) + "═" + right
}

func line(cells [Columns]string, widths [Columns]int, aligns [Columns]align) string {
	var b strings.Builder

	for i := range cells {
		if i == 2 {
			b.WriteString("  ")
		}

		if i == 0 || i == 2 {
			b.WriteString("║")
		}

		b.WriteString(pad(cells[i], widths[i], aligns[i]))
		b.WriteString(" ║")
	}

	b.WriteString("\n")

	return b.String()
}

// pad fits s into width cells. Centering puts the smaller half of any odd
// leftover on the left.
func pad(s string, width int, a align) string {
	switch a {
	case alignLeft:
		return runewidth.FillRight(s, width)
	case alignRight:
		return runewidth.FillLeft(s, width)
	default:
		gap := width - runewidth.StringWidth(s)
		if gap <= 0 {
			return s
		}

		left := gap / 2

		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
}
