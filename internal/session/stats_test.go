package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touch11/legends/go-server/internal/store"
)

func win(day string) FinalizedRecord {
	return FinalizedRecord{SchemaVersion: SchemaVersion, Completed: true, Won: true, Date: day}
}

func loss(day string) FinalizedRecord {
	return FinalizedRecord{SchemaVersion: SchemaVersion, Completed: true, Won: false, Date: day}
}

func TestComputeLifetimeStatsEmptyHistory(t *testing.T) {
	s := ComputeLifetimeStats(nil, "2024-01-10")
	assert.Equal(t, LifetimeStats{}, s)
}

func TestComputeLifetimeStatsConsecutiveWins(t *testing.T) {
	s := ComputeLifetimeStats([]FinalizedRecord{
		win("2024-01-01"),
		win("2024-01-02"),
	}, "2024-01-02")

	assert.Equal(t, 2, s.Played)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 100, s.WinPercentage)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
}

func TestComputeLifetimeStatsGapRestartsStreak(t *testing.T) {
	// A day was skipped between the wins, so the second win starts over at 1.
	s := ComputeLifetimeStats([]FinalizedRecord{
		win("2024-01-01"),
		win("2024-01-03"),
	}, "2024-01-03")

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.MaxStreak)
}

func TestComputeLifetimeStatsLossResetsStreak(t *testing.T) {
	s := ComputeLifetimeStats([]FinalizedRecord{
		win("2024-01-01"),
		win("2024-01-02"),
		loss("2024-01-03"),
		win("2024-01-04"),
	}, "2024-01-04")

	assert.Equal(t, 4, s.Played)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 75, s.WinPercentage)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
}

func TestComputeLifetimeStatsStaleStreakDies(t *testing.T) {
	// Last play was several days ago: the streak is gone, MaxStreak stands.
	s := ComputeLifetimeStats([]FinalizedRecord{
		win("2024-01-01"),
		win("2024-01-02"),
	}, "2024-01-10")

	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 2, s.MaxStreak)
}

func TestComputeLifetimeStatsYesterdayKeepsStreak(t *testing.T) {
	s := ComputeLifetimeStats([]FinalizedRecord{win("2024-01-01")}, "2024-01-02")
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestComputeLifetimeStatsWinPercentageRounds(t *testing.T) {
	s := ComputeLifetimeStats([]FinalizedRecord{
		win("2024-01-01"),
		loss("2024-01-02"),
		loss("2024-01-03"),
	}, "2024-01-03")
	// 1 of 3 rounds to 33.
	assert.Equal(t, 33, s.WinPercentage)
}

func TestComputeLifetimeStatsSkipsIncompleteRecords(t *testing.T) {
	s := ComputeLifetimeStats([]FinalizedRecord{
		{SchemaVersion: SchemaVersion, Completed: false, Date: "2024-01-01"},
		win("2024-01-02"),
	}, "2024-01-02")

	assert.Equal(t, 1, s.Played)
	assert.Equal(t, 1, s.CurrentStreak)
}

func TestHistogramRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemory()

	h := readHistogram(ctx, gw)
	assert.Equal(t, WeeklyHistogram{}, h)

	require.NoError(t, bumpHistogram(ctx, gw, 1))
	require.NoError(t, bumpHistogram(ctx, gw, 1))
	require.NoError(t, bumpHistogram(ctx, gw, 7))

	h = readHistogram(ctx, gw)
	assert.Equal(t, 2, h[1])
	assert.Equal(t, 1, h[7])
	assert.Equal(t, 0, h[3])

	// Counters are stored as plain integer text, not JSON.
	raw, ok, err := gw.Get(ctx, weekKey(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", raw)
}

func TestReadHistogramIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemory()
	require.NoError(t, gw.Set(ctx, weekKey(2), "not a number"))
	h := readHistogram(ctx, gw)
	assert.Equal(t, 0, h[2])
}
