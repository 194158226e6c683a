package normalize

import (
	"strings"
	"time"
)

// dateLayouts are tried in order against arbitrary source date/time text.
// Layouts carrying a clock component also feed ParseTime.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"02 Jan 2006 15:04",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC1123,
}

// ParseDate parses arbitrary date/time text into ISO YYYY-MM-DD. Returns
// nil on anything unparseable; malformed input never raises.
func ParseDate(raw string) *string {
	t, _, ok := parseAny(raw)
	if !ok {
		return nil
	}
	formatted := t.Format("2006-01-02")
	return &formatted
}

// ParseTime parses arbitrary date/time text into HH:mm. Returns nil when
// the text is unparseable or carries no clock component.
func ParseTime(raw string) *string {
	t, hasClock, ok := parseAny(raw)
	if !ok || !hasClock {
		return nil
	}
	formatted := t.Format("15:04")
	return &formatted
}

func parseAny(raw string) (t time.Time, hasClock, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			return parsed, strings.Contains(layout, "15:04"), true
		}
	}
	return time.Time{}, false, false
}
