// Package sequence provides day-scoped sale number generation.
// Numbers follow the external contract V<YYYYMMDD>-<4-digit sequence>,
// e.g. V20250613-0007. The prefix scopes uniqueness to a calendar day;
// global uniqueness follows from the day prefix plus the per-day sequence.
//
// This package holds the domain contract and number arithmetic; the
// database-backed implementation lives in infrastructure/sequence.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// prefixLetter opens every sale number.
	prefixLetter = "V"

	// dayLayout is the date portion of the number.
	dayLayout = "20060102"

	// SuffixWidth is the fixed zero-padded width of the per-day counter.
	// Fixed width keeps string-lexicographic ordering consistent with
	// numeric ordering, which the max-number lookup relies on.
	SuffixWidth = 4
)

// Result is the outcome of a number generation.
type Result struct {
	// Number is the generated sale number, e.g. V20250613-0007.
	Number string

	// SuffixReset reports that the stored last number for the day had a
	// malformed suffix and the counter was reset to 0001 instead of
	// failing. Callers should log this; it is a warning, not an error.
	SuffixReset bool
}

// Generator produces the next sale number for a point in time.
//
// Implementations only read; reservation of the returned number is the
// caller's job, and callers must hold the coordinator's generation lock
// between Next and the insert that uses the number.
type Generator interface {
	Next(ctx context.Context, now time.Time) (Result, error)
}

// DayPrefix returns the day-scoped prefix for a point in time, e.g. V20250613.
func DayPrefix(now time.Time) string {
	return prefixLetter + now.Format(dayLayout)
}

// Format builds a full sale number from a day and a sequence value.
func Format(now time.Time, seq int) string {
	return fmt.Sprintf("%s-%0*d", DayPrefix(now), SuffixWidth, seq)
}

// ParseSuffix extracts the numeric suffix from a sale number.
// Returns an error for anything that does not look like <prefix>-<digits>.
func ParseSuffix(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("malformed sale number %q", number)
	}
	n, err := strconv.Atoi(number[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed sale number suffix %q: %w", number, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative sale number suffix in %q", number)
	}
	return n, nil
}
