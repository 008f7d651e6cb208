package winlog

import (
	"fmt"
	"strconv"
	"time"
)

const wmiTimeLayout = "20060102150405.000000"

// FormatWMITime renders t as a CIM_DATETIME string in UTC.
func FormatWMITime(t time.Time) string {
	return t.UTC().Format(wmiTimeLayout) + "+000"
}

// ParseWMITime parses a CIM_DATETIME value such as 20261015120000.000000-060.
// The trailing field is the UTC offset in minutes.
func ParseWMITime(s string) (time.Time, error) {
	if len(s) != len(wmiTimeLayout)+4 {
		return time.Time{}, fmt.Errorf("malformed CIM datetime %q", s)
	}
	offset, err := strconv.Atoi(s[len(wmiTimeLayout):])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed CIM datetime offset %q: %w", s, err)
	}
	loc := time.FixedZone("", offset*60)
	return time.ParseInLocation(wmiTimeLayout, s[:len(wmiTimeLayout)], loc)
}
