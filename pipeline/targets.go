package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/mcxwatch/locator"
)

// contractDay is the day of month the exchange quotes contracts against.
const contractDay = 30

// TargetItem is one contract month to extract. Items are computed once at
// start-up and never change afterwards.
type TargetItem struct {
	// Label is the display and CSV key, e.g. "April 2025".
	Label string

	Month time.Month
	Year  int
	Day   int

	// Locators find the control that selects this contract on the page.
	Locators []locator.Locator
}

// ContractMonths returns n consecutive contract months starting with the
// month of now. Each contract is dated the 30th, or the month's last day
// when it is shorter.
func ContractMonths(now time.Time, n int) []TargetItem {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	items := make([]TargetItem, 0, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i, 0)
		day := min(contractDay, daysIn(m))
		items = append(items, TargetItem{
			Label:    m.Format("January 2006"),
			Month:    m.Month(),
			Year:     m.Year(),
			Day:      day,
			Locators: contractLocators(m.Month(), day, m.Year()),
		})
	}
	return items
}

// Labels returns the items' labels in order.
func Labels(items []TargetItem) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Label
	}
	return out
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func contractLocators(month time.Month, day, year int) []locator.Locator {
	name := strings.ToLower(month.String())
	return locator.XPaths(false,
		fmt.Sprintf("//input[contains(@value, '%d-%d-%d')]", int(month), day, year),
		fmt.Sprintf("//input[contains(@value, '%s-%d-%d')]", name, day, year),
		fmt.Sprintf("//label[contains(text(), '%s')]/input", name),
		fmt.Sprintf("//label[contains(normalize-space(), '%s %d')]", name, year),
		fmt.Sprintf("//div[contains(@class, 'contract') and contains(text(), '%s')]", name),
		fmt.Sprintf("//div[contains(@class, 'month') and contains(text(), '%s')]", name),
	)
}
