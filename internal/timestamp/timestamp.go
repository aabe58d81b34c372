// Package timestamp formats datetimes read back from the store for display.
//
// THE DOUBLE-OFFSET PROBLEM:
// The database writes created_at as a +08:00 wall-clock value with no zone.
// The driver decodes that value as if it were UTC, so as an instant it sits
// eight hours ahead of the moment it was written. Rendered in the +08:00
// display zone it would show a clock eight hours late. Normalize moves the
// instant back by Offset and renders it in Zone, which gives back exactly
// the wall clock the database stored.
//
// It is not a general timezone converter: the offset is fixed and it must
// only be applied to values read from the store, never to values about to
// be written.
package timestamp

import "time"

// Offset is the shift introduced by decoding a +08:00 wall-clock value as UTC.
const Offset = 8 * time.Hour

// Layout renders as YYYY-MM-DD HH:MM:SS with zero-padded components.
const Layout = "2006-01-02 15:04:05"

// Zone is the display zone. It is fixed rather than time.Local so output
// does not depend on the host's TZ.
var Zone = time.FixedZone("CST", 8*60*60)

// Normalize subtracts Offset from t and formats it in Zone with Layout.
// A nil or zero t yields "".
//
// Calling Normalize twice on the same stored value always gives the same
// string.
func Normalize(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Add(-Offset).In(Zone).Format(Layout)
}
