// Package extractor turns raw page text into typed values: prices,
// percentage changes and report timestamps.
package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/use-agent/mcxwatch/models"
)

var (
	// currencyRe matches the first rupee-prefixed amount.
	currencyRe = regexp.MustCompile(`(?:₹|Rs\.?|INR)\s*([\d,]+(?:\.\d+)?)`)

	// changeRe matches a signed amount, optionally with thousands separators.
	changeRe = regexp.MustCompile(`[+-]?\d[\d,]*(?:\.\d+)?`)

	// percentRe matches the parenthesised percentage in "<change> (<percent>%)".
	percentRe = regexp.MustCompile(`\(\s*([+-]?\d+(?:\.\d+)?)\s*%\s*\)`)

	hundred = decimal.NewFromInt(100)
)

// normalize folds the typographic minus and non-breaking spaces that quote
// pages use into their ASCII forms.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\u2212", "-")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

func notParseable(format string, args ...any) error {
	return models.NewExtractError(models.ErrCodeNotParseable, fmt.Sprintf(format, args...), nil)
}

// ParsePrice extracts a price from element text.
//
// When the text contains a rupee-prefixed amount the first such amount is
// used, so "₹ 2,450.50 -5 (-0.2%)" yields 2450.50. Otherwise the whole text,
// once currency symbols, separators and whitespace are stripped, must be a
// number. Zero and negative values are rejected since no listed price can
// take them.
func ParsePrice(text string) (decimal.Decimal, error) {
	text = normalize(text)

	raw := text
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	raw = strings.NewReplacer("₹", "", "Rs.", "", "INR", "", ",", "", " ", "").Replace(raw)
	if raw == "" {
		return decimal.Zero, notParseable("no price in %q", text)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, notParseable("price %q", text)
	}
	if !d.IsPositive() {
		return decimal.Zero, notParseable("non-positive price %q", text)
	}
	return d, nil
}

// ParseChange splits "<change> (<percent>%)" into its signed parts.
func ParseChange(text string) (change, percent decimal.Decimal, err error) {
	text = normalize(text)

	loc := percentRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return change, percent, notParseable("no percentage in %q", text)
	}
	pct := text[loc[2]:loc[3]]
	// The change is the amount nearest before the percentage group, so
	// labels such as "Change (1D)" ahead of it are skipped.
	amounts := changeRe.FindAllString(text[:loc[0]], -1)
	if len(amounts) == 0 {
		return change, percent, notParseable("no change amount in %q", text)
	}
	cm := amounts[len(amounts)-1]

	if change, err = parseSigned(strings.ReplaceAll(cm, ",", "")); err != nil {
		return change, percent, notParseable("change %q", cm)
	}
	if percent, err = parseSigned(pct); err != nil {
		return change, percent, notParseable("percent %q", pct)
	}
	return change, percent, nil
}

func parseSigned(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimPrefix(s, "+"))
}

// ReconstructPriceFromChange derives a price from a change string such as
// "-5 (-2.1%)" as |change / (percent/100)|, rounded to two places.
//
// The result is an approximation: it is the price level implied by the
// stated change, not the listed price, and is reported with
// models.SourceReconstructed. A zero percentage cannot imply a price and
// yields models.ErrNotParseable.
func ReconstructPriceFromChange(text string) (decimal.Decimal, error) {
	change, percent, err := ParseChange(text)
	if err != nil {
		return decimal.Zero, err
	}
	if percent.IsZero() {
		return decimal.Zero, notParseable("zero percentage in %q", text)
	}
	price := change.Mul(hundred).Div(percent).Abs().Round(2)
	if !price.IsPositive() {
		return decimal.Zero, notParseable("zero change in %q", text)
	}
	return price, nil
}
