package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/use-agent/mcxwatch/models"
)

// ScanCurrency walks the rendered page in document order and returns the
// first element whose own text carries the rupee sign and whose full text
// parses as a price. It is the last direct-observation fallback when every
// price locator missed.
func ScanCurrency(html string) (decimal.Decimal, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return decimal.Zero, models.NewExtractError(models.ErrCodeNotParseable, "parse page html", err)
	}

	var (
		price decimal.Decimal
		found bool
	)
	doc.Find("body *").Not("script, style, noscript").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		own := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return goquery.NodeName(c) == "#text"
		}).Text()
		if !strings.Contains(own, "₹") {
			return true
		}
		m := currencyRe.FindString(normalize(s.Text()))
		if m == "" {
			return true
		}
		p, err := ParsePrice(m)
		if err != nil {
			return true
		}
		price, found = p, true
		return false
	})

	if !found {
		return decimal.Zero, models.NewExtractError(models.ErrCodeNotParseable,
			fmt.Sprintf("no rupee amount in %d bytes of html", len(html)), nil)
	}
	return price, nil
}
