package parser

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2030, 2, 13, 15, 4, 5, 0, time.UTC)

func fixedNormalizer() *DateNormalizer {
	return &DateNormalizer{Now: func() time.Time { return fixedNow }}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	n := fixedNormalizer()
	today := day(2030, 2, 13)

	cases := []struct {
		expr   string
		want   time.Time
		wantOK bool
	}{
		{"eod", today, true},
		{"EOD", today, true},
		{"end of day", today, true},
		{"End  Of   Day", today, true},
		{"today", today, true},
		{"tomorrow", day(2030, 2, 14), true},
		{"Tomorrow", day(2030, 2, 14), true},
		{"2030-06-30", day(2030, 6, 30), true},
		{"06/30/2030", day(2030, 6, 30), true},
		{"6/3/2030", day(2030, 6, 3), true},
		{"13/02/2030", day(2030, 2, 13), true},
		{"03/04/2025", day(2025, 3, 4), true},
		{"friday", today, false},
		{"", today, false},
		{"2030-13-40", today, false},
	}
	for _, c := range cases {
		got, ok := n.Normalize(c.expr)
		if !got.Equal(c.want) || ok != c.wantOK {
			t.Errorf("Normalize(%q) = %v, %v; want %v, %v", c.expr, got.Format("2006-01-02"), ok, c.want.Format("2006-01-02"), c.wantOK)
		}
	}
}

func TestNormalize_TodaySynonymsAgree(t *testing.T) {
	n := fixedNormalizer()
	a, _ := n.Normalize("EOD")
	b, _ := n.Normalize("end of day")
	c, _ := n.Normalize("today")
	if !a.Equal(b) || !b.Equal(c) {
		t.Errorf("synonyms disagree: %v %v %v", a, b, c)
	}
}

func TestNormalize_MonthRollover(t *testing.T) {
	n := &DateNormalizer{Now: func() time.Time { return time.Date(2030, 12, 31, 23, 0, 0, 0, time.UTC) }}
	got, _ := n.Normalize("tomorrow")
	if !got.Equal(day(2031, 1, 1)) {
		t.Errorf("tomorrow = %v, want 2031-01-01", got)
	}
}
