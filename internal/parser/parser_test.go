package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"PredictionTracker/internal/collector"
)

type failingResolver struct{ err error }

func (f failingResolver) ResolveSymbol(context.Context, string) (string, error) {
	return "", f.err
}

func newTestParser() *Parser {
	resolver := &collector.StaticResolver{Symbols: map[string]string{
		"nvidia": "nvda",
		"nvda":   "NVDA",
		"apple":  "AAPL",
	}}
	return New(resolver, fixedNormalizer())
}

func TestParse_Basic(t *testing.T) {
	res, err := newTestParser().Parse(context.Background(), "nvidia 145 by eod")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := res.Prediction
	if p.Symbol != "NVDA" {
		t.Errorf("Symbol = %q, want NVDA", p.Symbol)
	}
	if p.TargetPrice != 145.0 {
		t.Errorf("TargetPrice = %v, want 145", p.TargetPrice)
	}
	if p.DateString() != "2030-02-13" {
		t.Errorf("TargetDate = %s, want 2030-02-13", p.DateString())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestParse_PriceAndDateForms(t *testing.T) {
	cases := []struct {
		input     string
		wantPrice float64
		wantDate  string
	}{
		{"apple 190.5 by tomorrow", 190.5, "2030-02-14"},
		{"apple $1,250.75 by 2030-06-30", 1250.75, "2030-06-30"},
		{"nvidia is going to 145 by friday", 145, "2030-02-13"},
		{"apple €99 BY 13/02/2031", 99, "2031-02-13"},
		{"apple -5 then 12 by eod", 12, "2030-02-13"},
		{"apple 200 by end of day", 200, "2030-02-13"},
	}
	p := newTestParser()
	for _, c := range cases {
		res, err := p.Parse(context.Background(), c.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.input, err)
			continue
		}
		if res.Prediction.TargetPrice != c.wantPrice {
			t.Errorf("Parse(%q) price = %v, want %v", c.input, res.Prediction.TargetPrice, c.wantPrice)
		}
		if got := res.Prediction.DateString(); got != c.wantDate {
			t.Errorf("Parse(%q) date = %s, want %s", c.input, got, c.wantDate)
		}
	}
}

func TestParse_DateMatchesNormalizer(t *testing.T) {
	p := newTestParser()
	n := fixedNormalizer()
	for _, expr := range []string{"eod", "tomorrow", "2031-01-02", "12/25/2030", "25/12/2030"} {
		res, err := p.Parse(context.Background(), "apple 100 by "+expr)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		want, _ := n.Normalize(expr)
		if !res.Prediction.TargetDate.Equal(want) {
			t.Errorf("date for %q = %v, want %v", expr, res.Prediction.TargetDate, want)
		}
	}
}

func TestParse_InsufficientInput(t *testing.T) {
	for _, in := range []string{"xyz", "", "   "} {
		_, err := newTestParser().Parse(context.Background(), in)
		if !errors.Is(err, ErrInsufficientInput) {
			t.Errorf("Parse(%q) err = %v, want ErrInsufficientInput", in, err)
		}
	}
}

func TestParse_SymbolNotFound(t *testing.T) {
	_, err := newTestParser().Parse(context.Background(), "unknownco 100 by tomorrow")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("err = %v, want ErrSymbolNotFound", err)
	}
}

func TestParse_ResolverFailure(t *testing.T) {
	boom := errors.New("connection reset")
	p := New(failingResolver{err: boom}, fixedNormalizer())
	_, err := p.Parse(context.Background(), "nvidia 145 by eod")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("err = %v, want ErrSymbolNotFound", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped resolver error", err)
	}
}

func TestParse_PriceNotFound(t *testing.T) {
	for _, in := range []string{"nvidia soon by eod", "nvidia 0 by eod", "nvidia -10 by tomorrow", "nvidia $ by eod", "nvidia 1e400 by eod", "nvidia 1e-400 by eod"} {
		_, err := newTestParser().Parse(context.Background(), in)
		if !errors.Is(err, ErrPriceNotFound) {
			t.Errorf("Parse(%q) err = %v, want ErrPriceNotFound", in, err)
		}
	}
}

func TestParse_SkipsNonFinitePriceTokens(t *testing.T) {
	res, err := newTestParser().Parse(context.Background(), "nvidia 1e400 1e-400 150 by eod")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Prediction.TargetPrice != 150 {
		t.Errorf("TargetPrice = %v, want 150", res.Prediction.TargetPrice)
	}
}

func TestParse_DateWarnings(t *testing.T) {
	cases := []struct {
		input string
		want  error
	}{
		{"nvidia 145", ErrNoDateKeyword},
		{"nvidia 145 by", ErrMissingDate},
		{"nvidia 145 by next week", ErrUnrecognizedDateFormat},
	}
	for _, c := range cases {
		res, err := newTestParser().Parse(context.Background(), c.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.input, err)
		}
		if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], c.want) {
			t.Errorf("Parse(%q) warnings = %v, want %v", c.input, res.Warnings, c.want)
		}
		if !res.Prediction.TargetDate.Equal(day(2030, 2, 13)) {
			t.Errorf("Parse(%q) date = %v, want today", c.input, res.Prediction.TargetDate)
		}
	}
}

func TestParse_NilNormalizerUsesWallClock(t *testing.T) {
	p := New(&collector.StaticResolver{Passthrough: true}, nil)
	res, err := p.Parse(context.Background(), "acme 10 by today")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := res.Prediction.DateString(), time.Now().Format("2006-01-02"); got != want {
		t.Errorf("date = %s, want %s", got, want)
	}
}
