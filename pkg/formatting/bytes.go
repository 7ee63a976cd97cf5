// Package formatting provides human-readable formatting and parsing for byte
// sizes, dates, and display names.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with base-1024 units, e.g. 1536 at precision 1 is "1.5 KB".
func FormatBytes(n int64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "50MB", "1.5 kb", or a bare byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.ToUpper(strings.TrimSpace(s[split:]))
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	multiplier := 1.0
	if unit != "" {
		found := false
		for _, u := range units {
			if u == unit {
				found = true
				break
			}
			multiplier *= 1024
		}
		if !found {
			return 0, fmt.Errorf("unknown byte size unit: %q", unit)
		}
	}

	return int64(value * multiplier), nil
}
