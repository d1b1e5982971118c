package notifier

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"PredictionTracker/internal/calculator"
	"PredictionTracker/internal/model"
)

// TableRows is how many recent observations the terminal table shows.
const TableRows = 10

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	aboveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	belowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	columnWidths = []int{10, 12, 12, 10}
)

// TerminalPresenter renders session state for an interactive terminal.
type TerminalPresenter struct{}

func cell(style lipgloss.Style, width int, text string) string {
	return style.Width(width).Render(text)
}

func row(styles []lipgloss.Style, cols ...string) string {
	var b strings.Builder
	for i, c := range cols {
		b.WriteString(cell(styles[i], columnWidths[i], c))
	}
	return b.String()
}

// Snapshot renders the last TableRows observations as a coloured table with
// Time, Price, Target and Diff % columns.
func (TerminalPresenter) Snapshot(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s Price Tracking", snap.Symbol)))
	b.WriteString(fmt.Sprintf("  (id %s, target $%.2f by %s)\n", snap.SessionID, snap.TargetPrice, snap.TargetDate.Format(model.DateLayout)))

	plain := lipgloss.NewStyle()
	hs := []lipgloss.Style{headerStyle, headerStyle, headerStyle, headerStyle}
	b.WriteString(row(hs, "Time", "Price", "Target", "Diff %"))
	b.WriteString("\n")

	hist := snap.History
	if len(hist) > TableRows {
		hist = hist[len(hist)-TableRows:]
	}
	for _, o := range hist {
		diff, err := calculator.DeviationPct(o.Price, snap.TargetPrice)
		if err != nil {
			continue
		}
		color := belowStyle
		if calculator.Reached(o.Price, snap.TargetPrice) {
			color = aboveStyle
		}
		b.WriteString(row([]lipgloss.Style{plain, plain, plain, color},
			o.Timestamp.Format("15:04:05"),
			fmt.Sprintf("$%.2f", o.Price),
			fmt.Sprintf("$%.2f", snap.TargetPrice),
			fmt.Sprintf("%.2f%%", diff),
		))
		b.WriteString("\n")
	}
	if len(hist) == 0 {
		b.WriteString("waiting for first price\n")
	}
	if snap.State == model.PollBackoff || snap.Failures > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%s after %d failed polls: %s", snap.State, snap.Failures, snap.LastError)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (TerminalPresenter) Started(snap *model.Snapshot, warnings []error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tracking %s -> $%.2f by %s (id %s)",
		snap.Symbol, snap.TargetPrice, snap.TargetDate.Format(model.DateLayout), snap.SessionID))
	for _, w := range warnings {
		b.WriteString("\n" + warnStyle.Render("warning: "+w.Error()))
	}
	return b.String()
}

func (TerminalPresenter) SessionList(snaps []model.Snapshot) string {
	if len(snaps) == 0 {
		return "No active predictions."
	}
	lines := make([]string, len(snaps))
	for i := range snaps {
		lines[i] = summaryLine(&snaps[i], false)
	}
	return strings.Join(lines, "\n")
}

func (TerminalPresenter) PredictionLog(records []model.PredictionRecord) string {
	if len(records) == 0 {
		return "No predictions logged yet."
	}
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = fmt.Sprintf("%s $%.2f by %s", r.Symbol, r.TargetPrice, r.Date)
	}
	return strings.Join(lines, "\n")
}

func (TerminalPresenter) Message(text string) string { return text }

func (TerminalPresenter) Help() string {
	return "Commands:\n" +
		"  <name> <price> by <date>   track a prediction, e.g. nvidia 145 by eod\n" +
		"  list                       list active predictions\n" +
		"  show <id>                  show price table for a prediction\n" +
		"  stop <id>                  stop tracking a prediction\n" +
		"  log                        show logged predictions\n" +
		"  track <name> <price> ...   track a name that is also a command word\n" +
		"  quit                       exit"
}
