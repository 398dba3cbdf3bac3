package board

import "time"

// DateLayout renders timestamps like "May 1, 2024, 10:20 AM".
const DateLayout = "Jan 2, 2006, 03:04 PM"

// FormatTime renders t in loc. A nil loc means local time.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}
