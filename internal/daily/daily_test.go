package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash32RegressionVector(t *testing.T) {
	// Precomputed with the reference 32-bit polynomial hash.
	assert.Equal(t, int32(-613341632), Hash32("2024-01-01"))
}

func TestSelectIndexDeterministic(t *testing.T) {
	dates := []string{"2024-01-01", "2024-02-29", "2025-12-31", "1999-07-04"}
	for _, d := range dates {
		first, err := SelectIndex(d, 97)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := SelectIndex(d, 97)
			require.NoError(t, err)
			assert.Equal(t, first, again, "date %s", d)
		}
	}
}

func TestSelectIndexRegressionVector(t *testing.T) {
	// |-613341632| % 5 == 2
	idx, err := SelectIndex("2024-01-01", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestSelectIndexSingleElementList(t *testing.T) {
	for _, d := range []string{"2024-01-01", "2030-06-15", "2000-01-02"} {
		idx, err := SelectIndex(d, 1)
		require.NoError(t, err)
		assert.Zero(t, idx)
	}
}

func TestSelectIndexRejectsEmptyList(t *testing.T) {
	_, err := SelectIndex("2024-01-01", 0)
	assert.ErrorIs(t, err, ErrEmptyList)
	_, err = SelectIndex("2024-01-01", -3)
	assert.ErrorIs(t, err, ErrEmptyList)
}

func TestSelectIndexInRange(t *testing.T) {
	for day := 1; day <= 28; day++ {
		d := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		idx, err := SelectIndex(d, 7)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 7)
	}
}

func TestDateKeyReferenceOffset(t *testing.T) {
	// 03:00 UTC is still the previous day in Colombia (UTC-5).
	at := time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-09", DateKey(at, DefaultOffsetHours))
	assert.Equal(t, "2024-05-10", DateKey(at, 0))

	// 05:00 UTC crosses into the new Colombian day.
	at = time.Date(2024, 5, 10, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-10", DateKey(at, DefaultOffsetHours))
}

func TestDateKeyDistinctDays(t *testing.T) {
	seen := map[string]bool{}
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		k := DateKey(start.AddDate(0, 0, i), DefaultOffsetHours)
		assert.False(t, seen[k], "duplicate day key %s", k)
		seen[k] = true
	}
}

func TestWeekday(t *testing.T) {
	// 2024-01-01 was a Monday; midday UTC stays Monday in UTC-5.
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, Weekday(at, DefaultOffsetHours))

	// Sunday maps to 7, not 0.
	at = time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, Weekday(at, DefaultOffsetHours))
}

func TestNextRollover(t *testing.T) {
	// 23:00 reference time on the 1st → 00:01 on the 2nd is 61 minutes away.
	now := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC) // 23:00 UTC-5 on Jan 1
	assert.Equal(t, 61*time.Minute, NextRollover(now, DefaultOffsetHours))

	// Just after a rollover the next one is almost a full day out.
	now = time.Date(2024, 1, 2, 5, 2, 0, 0, time.UTC) // 00:02 UTC-5 on Jan 2
	assert.Equal(t, 23*time.Hour+59*time.Minute, NextRollover(now, DefaultOffsetHours))
}
