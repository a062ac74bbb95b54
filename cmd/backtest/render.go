package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-screener/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-screener/internal/types"
)

// Style definitions.
var (
	TitleStyle  = lipgloss.NewStyle().Bold(true)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	CellStyle   = lipgloss.NewStyle().Padding(0, 1)
	GainStyle   = CellStyle.Foreground(lipgloss.Color("2"))
	LossStyle   = CellStyle.Foreground(lipgloss.Color("1"))
	FaintStyle  = lipgloss.NewStyle().Faint(true)
)

var resultHeaders = []string{"#", "Asset", "Return %", "Hold %", "vs Hold %", "Trades", "Win %", "Max DD %", "Fees", "Cached"}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// resultRows lists at most top results (all when top <= 0) in batch order.
func resultRows(results []types.BacktestResult, top int) [][]string {
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	rows := make([][]string, 0, len(results))

	for i, r := range results {
		cached := ""
		if r.FromCache {
			cached = "yes"
		}

		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.AssetID,
			pct(r.TotalReturnPct),
			pct(r.BuyAndHoldReturnPct),
			pct(r.StrategyVsHoldPct),
			strconv.Itoa(r.TradeCount),
			pct(r.WinRatePct),
			pct(r.MaxDrawdownPct),
			pct(r.TotalFees),
			cached,
		})
	}

	return rows
}

// failureRows lists failed assets with their reason.
func failureRows(failures []types.AssetFailure) [][]string {
	rows := make([][]string, 0, len(failures))

	for _, f := range failures {
		rows = append(rows, []string{f.AssetID, f.Reason, f.Message})
	}

	return rows
}

func newTable(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(FaintStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}

			if style != nil {
				return style(row, col)
			}

			return CellStyle
		})
}

func renderBatch(result types.BatchResult, top int) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Batch %s %s: %d succeeded, %d failed",
		result.ID, result.Status, result.Succeeded, result.Failed)))
	b.WriteString("\n")

	if len(result.Results) > 0 {
		rows := resultRows(result.Results, top)
		b.WriteString(newTable(resultHeaders, rows, func(row, col int) lipgloss.Style {
			if col != 2 {
				return CellStyle
			}

			if strings.HasPrefix(rows[row][col], "-") {
				return LossStyle
			}

			return GainStyle
		}).String())
		b.WriteString("\n")
	}

	if len(result.Failures) > 0 {
		b.WriteString(TitleStyle.Render("Failures"))
		b.WriteString("\n")
		b.WriteString(newTable([]string{"Asset", "Reason", "Message"}, failureRows(result.Failures), nil).String())
		b.WriteString("\n")
	}

	if len(result.Skipped) > 0 {
		b.WriteString(FaintStyle.Render(fmt.Sprintf("Skipped: %s", strings.Join(result.Skipped, ", "))))
		b.WriteString("\n")
	}

	return b.String()
}

func renderStats(stats cache.Stats) string {
	rows := [][]string{
		{"Entries", strconv.Itoa(stats.EntryCount)},
		{"Memory estimate", strconv.FormatInt(stats.MemoryEstimate, 10)},
		{"Hit rate", pct(stats.HitRate * 100)},
		{"Hits", strconv.FormatUint(stats.Hits, 10)},
		{"Misses", strconv.FormatUint(stats.Misses, 10)},
		{"Evictions", strconv.FormatUint(stats.Evictions, 10)},
	}

	return newTable([]string{"Cache", "Value"}, rows, nil).String()
}

func renderAssets(assets []string) string {
	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, []string{asset})
	}

	return newTable([]string{fmt.Sprintf("Assets (%d)", len(assets))}, rows, nil).String()
}
