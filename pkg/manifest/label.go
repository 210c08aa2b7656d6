package manifest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingInt = regexp.MustCompile(`-?\d+`)

// SplitLabel splits a combined "tail-number load-number" label. The last
// whitespace-separated token is the sequence number (0 when not numeric) and
// the rest is the aircraft.
func SplitLabel(label string) (aircraft string, sequence int) {
	fields := strings.Fields(cleanText(label))
	if len(fields) == 0 {
		return "", 0
	}
	if len(fields) == 1 {
		return "", ParseSequence(fields[0])
	}
	return strings.Join(fields[:len(fields)-1], " "), ParseSequence(fields[len(fields)-1])
}

// ParseSequence parses a load number, tolerating a leading '#'. Anything else
// that is not an integer yields 0.
func ParseSequence(s string) int {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseCount pulls the first integer out of free text like "3 slots left".
func parseCount(s string) *int {
	m := leadingInt.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// maxCount bounds counts read from the feed; anything larger is not a count.
const maxCount = 1 << 31

// parseWholeNumber reads an integral count such as "3" or "3.0". Fractions,
// NaN, infinities and out-of-range values are rejected.
func parseWholeNumber(s string) (int, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if n != math.Trunc(n) || math.Abs(n) >= maxCount {
		return 0, false
	}
	return int(n), true
}

// cleanText drops non-breaking spaces and trims.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
