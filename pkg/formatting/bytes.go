// Package formatting provides human-readable formatting and parsing utilities
// for byte sizes and model responses.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// exponents maps every accepted unit spelling to its power of 1024. SI,
// IEC ("MiB") and single-letter ("M") spellings are all binary.
var exponents = func() map[string]int {
	m := make(map[string]int, len(units)*3)
	for i, u := range units {
		m[u] = i
		if i > 0 {
			prefix := u[:1]
			m[prefix] = i
			m[prefix+"IB"] = i
		}
	}
	return m
}()

var bytesPattern = regexp.MustCompile(`^(\d+(?:\.\d*)?)\s*([A-Za-z]*)$`)

// FormatBytes converts a byte count to a human-readable string using base-1024 units.
// Negative precision values are clamped to zero.
func FormatBytes(n int64, precision int) string {
	if n == 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	size := float64(n)
	i := min(int(math.Floor(math.Log(size)/math.Log(1024))), len(units)-1)
	size /= math.Pow(1024, float64(i))

	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses a byte size such as "50MB", "50MiB", "50M" or "1024"
// into a byte count. Units are case-insensitive and base-1024; a bare number
// is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	m := bytesPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	unit := strings.ToUpper(m[2])
	if unit == "" {
		return int64(value), nil
	}

	exp, ok := exponents[unit]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", m[2])
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}
