package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touch11/legends/go-server/internal/roster"
)

// testRoster builds a tiny two-country roster with a three-slot formation
// so win conditions are quick to reach.
func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	doc := `{
	  "countries": [{"code":"AA","name":"ALPHA"},{"code":"BB","name":"BRAVO"}],
	  "playersByCountry": {"AA":["KEEPER","MIDDY"],"BB":["FLEX","WINGER","BKEEPER"]},
	  "playerPositions": {"KEEPER":["GK"],"MIDDY":["CM"],"FLEX":["GK","CM"],"WINGER":["LW"],"BKEEPER":["GK"]},
	  "formations": {"mini":{"name":"Mini","positions":[
	    {"position":"GK","row":"goalkeeper"},
	    {"position":"CM","row":"midfield"},
	    {"position":"CM","row":"midfield"}]}}
	}`
	r, err := roster.Parse([]byte(doc), []string{"KEEPER", "MIDDY", "FLEX"})
	require.NoError(t, err)
	return r
}

// gameAt returns an in-progress game with a known queue position, so tests
// control which country is being prompted.
func gameAt(t *testing.T, r *roster.Roster, current string, order []string, idx int) *Game {
	t.Helper()
	g, err := New(r, "2024-01-01", "mini", rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, g.RestoreProgress(Snapshot{
		CountryOrder:   order,
		QueueIndex:     idx,
		CurrentCountry: current,
		Started:        true,
	}))
	return g
}

func TestNewUnknownFormation(t *testing.T) {
	_, err := New(testRoster(t), "2024-01-01", "5-5-0", nil)
	assert.Error(t, err)
}

func TestStartDealsFirstCountry(t *testing.T) {
	r := testRoster(t)
	g, err := New(r, "2024-01-01", "mini", rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	assert.Equal(t, StateNotStarted, g.State())
	assert.Nil(t, g.CurrentCountry())

	g.Start()
	assert.Equal(t, StateInProgress, g.State())
	require.NotNil(t, g.CurrentCountry())
	assert.Equal(t, 3, g.TotalSlots())
	assert.Zero(t, g.CompletedCount())

	// Start again is a no-op.
	before := g.CurrentCountry().Code
	g.Start()
	assert.Equal(t, before, g.CurrentCountry().Code)
}

func TestSubmitNameWrongCountry(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)

	// FLEX is rostered under BB, not the current AA.
	_, err := g.SubmitName("FLEX")
	assert.ErrorIs(t, err, ErrInvalidPlayerForCountry)
	assert.Empty(t, g.Filled())
	assert.Zero(t, g.CompletedCount())
	assert.Equal(t, "AA", g.CurrentCountry().Code)

	// Unknown names are rejected the same way.
	_, err = g.SubmitName("NOBODY")
	assert.ErrorIs(t, err, ErrInvalidPlayerForCountry)
}

func TestSubmitNameIsCaseInsensitive(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)

	res, err := g.SubmitName("  keeper ")
	require.NoError(t, err)
	require.NotNil(t, res.Placed)
	assert.Equal(t, "KEEPER", res.Placed.Player)
	assert.Equal(t, "GK", res.Placed.Position)
	assert.Equal(t, "AA", res.Placed.CountryCode)
}

func TestSubmitNameNoAvailablePosition(t *testing.T) {
	r := testRoster(t)
	// WINGER only plays LW and the mini formation has no LW slot.
	g := gameAt(t, r, "BB", []string{"BB", "AA"}, 1)
	_, err := g.SubmitName("WINGER")
	assert.ErrorIs(t, err, ErrNoAvailablePosition)
	assert.Empty(t, g.Filled())
}

func TestSubmitNameRequiresChoiceOnMultipleOpenPositions(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "BB", []string{"BB", "AA"}, 1)

	res, err := g.SubmitName("FLEX")
	require.NoError(t, err)
	assert.Nil(t, res.Placed)
	assert.Equal(t, []string{"GK", "CM"}, res.Candidates)
	assert.Equal(t, []string{"GK", "CM"}, g.PendingCandidates())
	// Nothing is assigned until the choice is made.
	assert.Zero(t, g.CompletedCount())

	_, err = g.ChoosePosition("LW")
	assert.ErrorIs(t, err, ErrInvalidChoice)

	done, err := g.ChoosePosition("GK")
	require.NoError(t, err)
	require.NotNil(t, done.Placed)
	assert.Equal(t, "GK", done.Placed.Position)
	assert.Equal(t, 1, g.CompletedCount())
	assert.Nil(t, g.PendingCandidates())
}

func TestSubmitSupersedesPendingChoice(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "BB", []string{"BB", "AA"}, 1)

	// FLEX leaves a position choice pending.
	res, err := g.SubmitName("FLEX")
	require.NoError(t, err)
	require.Equal(t, []string{"GK", "CM"}, res.Candidates)

	// A new submission consumes the contested GK slot and drops the
	// pending choice.
	res, err = g.SubmitName("BKEEPER")
	require.NoError(t, err)
	require.NotNil(t, res.Placed)
	assert.Equal(t, "GK", res.Placed.Position)
	assert.Nil(t, g.PendingCandidates())

	// Answering the superseded choice must not assign anything.
	_, err = g.ChoosePosition("GK")
	assert.ErrorIs(t, err, ErrNoPendingChoice)
	assert.Equal(t, 1, g.CompletedCount())
	for id := range g.Filled() {
		assert.NotEmpty(t, id)
	}
}

func TestChoosePositionRejectsConsumedSlot(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "BB", []string{"BB", "AA"}, 1)

	_, err := g.SubmitName("BKEEPER")
	require.NoError(t, err)

	// A choice whose slot was filled in the meantime is refused outright.
	g.pending = &pendingChoice{player: "FLEX", candidates: []string{"GK", "CM"}}
	_, err = g.ChoosePosition("GK")
	assert.ErrorIs(t, err, ErrNoAvailablePosition)
	assert.Nil(t, g.PendingCandidates())
	assert.Equal(t, 1, g.CompletedCount())
	_, hasEmpty := g.Filled()[""]
	assert.False(t, hasEmpty)
}

func TestChoosePositionWithoutPending(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)
	_, err := g.ChoosePosition("GK")
	assert.ErrorIs(t, err, ErrNoPendingChoice)
}

func TestQueueAdvancesWithoutRepeatsWithinCycle(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)

	res, err := g.SubmitName("KEEPER")
	require.NoError(t, err)
	require.NotNil(t, res.NextCountry)
	// Queue order was AA then BB; the cycle must finish before any repeat.
	assert.Equal(t, "BB", res.NextCountry.Code)
}

func TestWinOnLastSlot(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)

	res, err := g.SubmitName("KEEPER") // GK slot
	require.NoError(t, err)
	assert.False(t, res.Won)

	// FLEX takes a CM (GK is now filled, only one open position remains).
	res, err = g.SubmitName("FLEX")
	require.NoError(t, err)
	require.NotNil(t, res.Placed)
	assert.Equal(t, "CM", res.Placed.Position)
	assert.False(t, res.Won)

	// The two-country cycle is exhausted after the second placement, so the
	// queue reshuffles. Pin the prompt back to AA via a snapshot restore to
	// keep the final move deterministic.
	snap := g.Snapshot()
	snap.CountryOrder = []string{"AA", "BB"}
	snap.QueueIndex = 1
	snap.CurrentCountry = "AA"
	g, err = New(r, "2024-01-01", "mini", nil)
	require.NoError(t, err)
	require.NoError(t, g.RestoreProgress(snap))

	// MIDDY fills the final CM: exactly 3 placements for 3 slots.
	res, err = g.SubmitName("MIDDY")
	require.NoError(t, err)
	assert.True(t, res.Won)
	assert.Nil(t, res.NextCountry)
	assert.Equal(t, StateWon, g.State())
	assert.Equal(t, 3, g.CompletedCount())

	// Terminal state rejects further input.
	_, err = g.SubmitName("KEEPER")
	assert.ErrorIs(t, err, ErrNotInProgress)
	assert.False(t, g.Surrender())
}

func TestFewerPlacementsStayInProgress(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)
	_, err := g.SubmitName("KEEPER")
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, g.State())
	assert.Equal(t, 1, g.CompletedCount())
}

func TestSurrenderIsIdempotent(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)

	assert.True(t, g.Surrender())
	assert.Equal(t, StateLost, g.State())
	assert.True(t, g.Surrendered())

	// Second surrender has no observable effect.
	assert.False(t, g.Surrender())
	assert.Equal(t, StateLost, g.State())

	_, err := g.SubmitName("KEEPER")
	assert.ErrorIs(t, err, ErrNotInProgress)
}

func TestSnapshotRoundTrip(t *testing.T) {
	r := testRoster(t)
	g := gameAt(t, r, "AA", []string{"AA", "BB"}, 1)
	_, err := g.SubmitName("KEEPER")
	require.NoError(t, err)

	snap := g.Snapshot()

	restored, err := New(r, "2024-01-01", "mini", nil)
	require.NoError(t, err)
	require.NoError(t, restored.RestoreProgress(snap))

	assert.Equal(t, g.Filled(), restored.Filled())
	assert.Equal(t, g.CompletedCount(), restored.CompletedCount())
	assert.Equal(t, g.CurrentCountry().Code, restored.CurrentCountry().Code)
	assert.Equal(t, StateInProgress, restored.State())
}

func TestRestoreFinalizedDisablesInput(t *testing.T) {
	r := testRoster(t)
	g, err := New(r, "2024-01-01", "mini", nil)
	require.NoError(t, err)

	filled := map[string]SlotAssignment{
		"pos-0": {PositionID: "pos-0", Position: "GK", Player: "KEEPER", CountryCode: "AA"},
	}
	g.RestoreFinalized(filled, 1, false, true)

	assert.Equal(t, StateLost, g.State())
	assert.True(t, g.Surrendered())
	assert.Equal(t, filled, g.Filled())
	_, err = g.SubmitName("MIDDY")
	assert.ErrorIs(t, err, ErrNotInProgress)
}
