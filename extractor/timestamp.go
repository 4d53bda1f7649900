package extractor

import (
	"context"
	"strings"
	"time"

	"github.com/use-agent/mcxwatch/cascade"
)

// TimestampLayouts are the accepted report time formats, tried in order.
var TimestampLayouts = []string{
	"2 January, 2006 | 15:04",
	"2 January 2006 | 15:04",
	"2 January, 2006 15:04",
	"2 Jan, 2006 | 15:04",
	"January 2, 2006 | 15:04",
}

// ParseTimestamp parses a page report time such as
// "As on 03 April, 2025 | 14:05" in loc.
func ParseTimestamp(text string, loc *time.Location) (time.Time, error) {
	text = normalize(text)
	if i := strings.Index(strings.ToLower(text), "as on"); i >= 0 {
		text = text[i+len("as on"):]
	}
	text = strings.Join(strings.Fields(text), " ")

	steps := make([]cascade.Step[time.Time], len(TimestampLayouts))
	for i, layout := range TimestampLayouts {
		steps[i] = cascade.Step[time.Time]{
			Name: layout,
			Try: func(context.Context) (time.Time, error) {
				return time.ParseInLocation(layout, text, loc)
			},
		}
	}

	ts, _, err := cascade.First(context.Background(), steps)
	if err != nil {
		return time.Time{}, notParseable("timestamp %q", text)
	}
	return ts, nil
}
