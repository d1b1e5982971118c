package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"PredictionTracker/internal/calculator"
	"PredictionTracker/internal/model"
)

// HTMLPresenter renders session state as Telegram HTML messages.
type HTMLPresenter struct{}

// Snapshot formats one session's live state.
func (HTMLPresenter) Snapshot(snap *model.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b>", html.EscapeString(snap.Symbol)))
	if snap.User != "" {
		b.WriteString(fmt.Sprintf(" | %s", html.EscapeString(snap.User)))
	}
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Target: $%.2f by %s\n", snap.TargetPrice, snap.TargetDate.Format(model.DateLayout)))

	if snap.HasPrice() {
		icon := "🔴"
		if calculator.Reached(*snap.CurrentPrice, snap.TargetPrice) {
			icon = "🟢"
		}
		b.WriteString(fmt.Sprintf("Current: $%.2f %s %+.2f%%\n", *snap.CurrentPrice, icon, *snap.DeviationPct))
		b.WriteString(fmt.Sprintf("Window: %d obs | high $%.2f | low $%.2f", len(snap.History), snap.High, snap.Low))
		if pos, err := calculator.RangePosition(*snap.CurrentPrice, snap.High, snap.Low); err == nil {
			b.WriteString(fmt.Sprintf(" | at %.0f%%", pos*100))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Current: waiting for first price\n")
	}

	if snap.State == model.PollBackoff || snap.Failures > 0 {
		b.WriteString(fmt.Sprintf("⚠️ %s after %d failed polls: %s\n", snap.State, snap.Failures, html.EscapeString(snap.LastError)))
	}
	b.WriteString(fmt.Sprintf("ID: <code>%s</code>", snap.SessionID))
	return b.String()
}

// Started confirms a new session and lists parse warnings.
func (p HTMLPresenter) Started(snap *model.Snapshot, warnings []error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ Tracking <b>%s</b> → $%.2f by %s\nID: <code>%s</code>",
		html.EscapeString(snap.Symbol), snap.TargetPrice, snap.TargetDate.Format(model.DateLayout), snap.SessionID))
	for _, w := range warnings {
		b.WriteString("\n⚠️ " + html.EscapeString(w.Error()))
	}
	return b.String()
}

// SessionList formats a one-line summary per session.
func (HTMLPresenter) SessionList(snaps []model.Snapshot) string {
	if len(snaps) == 0 {
		return "No active predictions."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Active predictions</b> (%d)\n\n", len(snaps)))
	for i := range snaps {
		b.WriteString(summaryLine(&snaps[i], true))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Digest is the periodic summary sent by the scheduler.
func (p HTMLPresenter) Digest(snaps []model.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Prediction digest</b> | %s\n\n", now.Format("2006-01-02 15:04")))
	if len(snaps) == 0 {
		b.WriteString("No active predictions.")
		return b.String()
	}
	for i := range snaps {
		b.WriteString(summaryLine(&snaps[i], true))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Expired lists sessions whose target date has passed. They keep running.
func (HTMLPresenter) Expired(snaps []model.Snapshot) string {
	var b strings.Builder
	b.WriteString("⏰ <b>Target date passed</b>\n\n")
	for i := range snaps {
		b.WriteString(summaryLine(&snaps[i], true))
		b.WriteString("\n")
	}
	b.WriteString("\nStill tracking; use /stop &lt;id&gt; to end a session.")
	return b.String()
}

// PredictionLog formats previously persisted predictions.
func (HTMLPresenter) PredictionLog(records []model.PredictionRecord) string {
	if len(records) == 0 {
		return "No predictions logged yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Prediction log</b> (%d)\n\n", len(records)))
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s $%.2f by %s\n", html.EscapeString(r.Symbol), r.TargetPrice, r.Date))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Message formats a plain notice or error.
func (HTMLPresenter) Message(text string) string {
	return html.EscapeString(text)
}

// Help lists the available commands.
func (HTMLPresenter) Help() string {
	return "Commands:\n" +
		"• /track &lt;name&gt; &lt;price&gt; by &lt;date&gt;\n" +
		"• /list\n" +
		"• /show &lt;id&gt;\n" +
		"• /stop &lt;id&gt;\n" +
		"• /log"
}

func summaryLine(snap *model.Snapshot, htmlMode bool) string {
	symbol, id := snap.Symbol, shortID(snap.SessionID)
	if htmlMode {
		symbol = "<b>" + html.EscapeString(symbol) + "</b>"
		id = "<code>" + id + "</code>"
	}
	line := fmt.Sprintf("%s %s → $%.2f by %s", id, symbol, snap.TargetPrice, snap.TargetDate.Format(model.DateLayout))
	if snap.HasPrice() {
		line += fmt.Sprintf(" | $%.2f (%+.2f%%)", *snap.CurrentPrice, *snap.DeviationPct)
	} else {
		line += " | no price yet"
	}
	if snap.State == model.PollBackoff {
		line += " | backoff"
	}
	return line
}

// shortID returns the first block of a session id for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
