// internal/daily/daily.go
//
// Deterministic daily selection for Touch11 Legends.
// Responsibilities:
//   - DateKey: normalize wall-clock time to a "YYYY-MM-DD" game day under
//     the reference UTC offset (Colombia, UTC-5, by default).
//   - SelectIndex: derive a repeatable index into an ordered list from a
//     date string, using a 32-bit polynomial string hash.
//   - Weekday: 1..7 (Monday..Sunday) under the reference offset, used to
//     key the weekly win histogram.
//   - NextRollover: time remaining until the next 00:01 reference-time
//     boundary, when the shared daily tally resets.
//
// The hash must stay bit-exact across releases: the same date string and
// list length always yield the same index, so every client sees the same
// word and formation for a given day.

package daily

import (
	"errors"
	"time"
)

// DefaultOffsetHours is the reference UTC offset (Colombia, UTC-5).
const DefaultOffsetHours = -5

// ErrEmptyList is returned by SelectIndex when listLength < 1.
var ErrEmptyList = errors.New("daily: list length must be positive")

// refTime shifts t into the reference offset.
func refTime(t time.Time, offsetHours int) time.Time {
	return t.UTC().Add(time.Duration(offsetHours) * time.Hour)
}

// DateKey returns YYYY-MM-DD for t under the reference offset.
// Distinct real-world days under the offset map to distinct keys.
func DateKey(t time.Time, offsetHours int) string {
	return refTime(t, offsetHours).Format("2006-01-02")
}

// Weekday returns the day of week for t under the reference offset,
// numbered Monday=1 .. Sunday=7.
func Weekday(t time.Time, offsetHours int) int {
	wd := int(refTime(t, offsetHours).Weekday()) // Sunday=0
	if wd == 0 {
		return 7
	}
	return wd
}

// Hash32 computes the classic multiplier-31 string hash over the UTF-16
// code units of s with 32-bit two's-complement wrapping at every step:
//
//	h = h*31 + codeUnit  (int32 overflow wraps silently)
//
// Date keys are ASCII, so ranging over bytes equals ranging over UTF-16
// code units here; non-ASCII input would need explicit UTF-16 encoding.
func Hash32(s string) int32 {
	var h int32
	for i := 0; i < len(s); i++ {
		h = h*31 + int32(s[i])
	}
	return h
}

// SelectIndex maps a date string to an index in [0, listLength).
// Deterministic: identical inputs always produce identical output.
//
// The magnitude of the hash is taken in int64 space so that the
// INT32_MIN hash (whose absolute value does not fit in int32) still
// yields a well-defined positive magnitude of 2147483648.
func SelectIndex(dateStr string, listLength int) (int, error) {
	if listLength < 1 {
		return 0, ErrEmptyList
	}
	h := int64(Hash32(dateStr))
	if h < 0 {
		h = -h
	}
	return int(h % int64(listLength)), nil
}

// NextRollover returns the duration from now until the next 00:01 under
// the reference offset. The caller re-arms its timer after each firing.
func NextRollover(now time.Time, offsetHours int) time.Duration {
	local := refTime(now, offsetHours)
	next := time.Date(local.Year(), local.Month(), local.Day(), 0, 1, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(local)
}
