package dbx

import (
	"strconv"
	"time"
)

// ToMillis is how timestamps are stored in SQLite INTEGER columns.
func ToMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// FromMillis is the inverse of ToMillis.
func FromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Placeholders returns n comma-separated positional parameters starting at
// start. With dollar set it yields "$1, $2", otherwise "?, ?".
func Placeholders(n, start int, dollar bool) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		if dollar {
			buf = append(buf, '$')
			buf = strconv.AppendInt(buf, int64(start+i), 10)
		} else {
			buf = append(buf, '?')
		}
	}
	return string(buf)
}
