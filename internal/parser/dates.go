package parser

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first successful parse wins. MM/DD is
// tried before DD/MM, so "03/04/2025" reads as March 4th.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
}

var todaySynonyms = map[string]bool{
	"eod":        true,
	"end of day": true,
	"today":      true,
}

// DateNormalizer maps free-text date expressions to calendar dates.
type DateNormalizer struct {
	Now func() time.Time
}

// NewDateNormalizer creates a normalizer using the local wall clock.
func NewDateNormalizer() *DateNormalizer {
	return &DateNormalizer{Now: time.Now}
}

func (n *DateNormalizer) today() time.Time {
	now := time.Now()
	if n.Now != nil {
		now = n.Now()
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// Today returns the current calendar date at midnight.
func (n *DateNormalizer) Today() time.Time {
	return n.today()
}

// Normalize converts expr to a calendar date. It never fails: unrecognised
// input yields today's date and ok=false so the caller can warn.
func (n *DateNormalizer) Normalize(expr string) (date time.Time, ok bool) {
	today := n.today()
	expr = strings.ToLower(strings.Join(strings.Fields(expr), " "))

	if todaySynonyms[expr] {
		return today, true
	}
	if expr == "tomorrow" {
		return today.AddDate(0, 0, 1), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, expr, today.Location()); err == nil {
			return t, true
		}
	}
	return today, false
}
