// Package parser turns free-text predictions such as "nvidia 145 by eod"
// into normalized prediction records.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PredictionTracker/internal/collector"
	"PredictionTracker/internal/model"
)

var (
	ErrInsufficientInput = errors.New("input doesn't contain enough information")
	ErrSymbolNotFound    = errors.New("could not find a valid symbol")
	ErrPriceNotFound     = errors.New("could not find a target price")
)

// Warnings are recoverable: parsing still succeeds with today's date.
var (
	ErrNoDateKeyword          = errors.New("'by' keyword not found, using today's date")
	ErrMissingDate            = errors.New("date not specified after 'by', using today's date")
	ErrUnrecognizedDateFormat = errors.New("unrecognized date format, using today's date")
)

const dateKeyword = "by"

// currencyMarkers may prefix the price token.
const currencyMarkers = "$€£¥"

// Result is a parsed prediction plus any recoverable warnings.
type Result struct {
	Prediction model.Prediction
	Warnings   []error
}

// Parser converts free text to predictions, delegating symbol lookup to a
// SymbolResolver and date handling to a DateNormalizer.
type Parser struct {
	resolver collector.SymbolResolver
	dates    *DateNormalizer
}

// New creates a Parser. A nil normalizer uses the local wall clock.
func New(resolver collector.SymbolResolver, dates *DateNormalizer) *Parser {
	if dates == nil {
		dates = NewDateNormalizer()
	}
	return &Parser{resolver: resolver, dates: dates}
}

// Parse tokenizes text as "<symbol_or_name> <tokens...> [by <date>]".
func (p *Parser) Parse(ctx context.Context, text string) (Result, error) {
	tokens := strings.Fields(text)
	if len(tokens) < 2 {
		return Result{}, fmt.Errorf("%w: %q", ErrInsufficientInput, text)
	}

	symbol, err := p.resolveSymbol(ctx, tokens[0])
	if err != nil {
		return Result{}, err
	}

	price, ok := scanPrice(tokens[1:])
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrPriceNotFound, text)
	}

	date, warnings := p.targetDate(tokens)
	for _, w := range warnings {
		slog.Warn("prediction date defaulted", slog.String("input", text), slog.String("warning", w.Error()))
	}

	pred := model.Prediction{Symbol: symbol, TargetPrice: price, TargetDate: date}
	slog.Info("parsed prediction",
		slog.String("symbol", pred.Symbol),
		slog.Float64("targetPrice", pred.TargetPrice),
		slog.String("date", pred.DateString()),
	)
	return Result{Prediction: pred, Warnings: warnings}, nil
}

func (p *Parser) resolveSymbol(ctx context.Context, query string) (string, error) {
	symbol, err := p.resolver.ResolveSymbol(ctx, query)
	if err != nil {
		if errors.Is(err, collector.ErrNotFound) {
			return "", fmt.Errorf("%w for %q", ErrSymbolNotFound, query)
		}
		return "", fmt.Errorf("%w for %q: %w", ErrSymbolNotFound, query, err)
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w for %q", ErrSymbolNotFound, query)
	}
	return symbol, nil
}

// scanPrice returns the first token that parses as a positive number once a
// leading currency marker and grouping separators are stripped.
func scanPrice(tokens []string) (float64, bool) {
	for _, tok := range tokens {
		s := strings.TrimLeft(tok, currencyMarkers)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		// Exponent forms can overflow to Inf or underflow to 0.
		f := d.InexactFloat64()
		if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}
		return f, true
	}
	return 0, false
}

// targetDate joins everything after the first "by" into a date expression.
func (p *Parser) targetDate(tokens []string) (date time.Time, warnings []error) {
	idx := -1
	for i, tok := range tokens {
		if strings.EqualFold(tok, dateKeyword) {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		return p.dates.Today(), []error{ErrNoDateKeyword}
	case idx == len(tokens)-1:
		return p.dates.Today(), []error{ErrMissingDate}
	}

	expr := strings.Join(tokens[idx+1:], " ")
	date, ok := p.dates.Normalize(expr)
	if !ok {
		return date, []error{fmt.Errorf("%w: %q", ErrUnrecognizedDateFormat, expr)}
	}
	return date, nil
}
