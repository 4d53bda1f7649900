package pipeline

import "github.com/use-agent/mcxwatch/locator"

// The quote page has been restyled several times; each list runs from the
// most specific markup seen to the loosest structural guess.
var (
	DateLocators = locator.XPaths(true,
		"//div[contains(@class, 'date')]",
		"//div[contains(@class, 'commodity-page__date')]",
		"//span[contains(@class, 'date')]",
		"//p[contains(text(), 'As on')]",
		"//*[contains(text(), 'As on')]",
	)

	PriceLocators = locator.XPaths(true,
		"//div[contains(@class, 'commodity-page__value')]",
		"//div[contains(@class, 'value')]/span",
		"//div[contains(@class, 'value')]",
		"//span[contains(@class, 'value')]",
		"//span[contains(text(), '₹')]",
		"//div[contains(text(), '₹')]",
		"//h1[contains(text(), '₹')]",
		"//h2[contains(text(), '₹')]",
		"//h3[contains(text(), '₹')]",
		"//p[contains(text(), '₹')]",
		"//div[contains(@class, 'price')]/parent::div",
		"//div[contains(@class, 'rate')]/parent::div",
	)

	RateLocators = locator.XPaths(true,
		"//div[contains(@class, 'commodity-page__percentage')]",
		"//div[contains(@class, 'percentage')]",
		"//span[contains(@class, 'change')]",
		"//div[contains(@class, 'change')]",
		"//span[contains(text(), '%')]",
		"//div[contains(text(), '%')]",
	)
)
