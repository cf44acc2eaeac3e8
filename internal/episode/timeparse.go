package episode

import (
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

var lenientParser = dps.Parser{}
var lenientConfig = &dps.Configuration{
	PreferredDateSource: dps.CurrentPeriod,
}

// ParseTimestamp parses a ts cell. RFC3339 is tried first since it is what
// every well-formed event table uses; a lenient fallback handles
// hand-authored fixtures using other common textual formats. The second
// return value is false when the value parses to neither, meaning the row's
// ts should be treated as missing (dropped, not fatal).
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}
	parsed, err := lenientParser.Parse(lenientConfig, raw)
	if err != nil || parsed == nil || parsed.Time.IsZero() {
		return time.Time{}, false
	}
	return parsed.Time.UTC(), true
}
