// internal/game/engine.go
//
// Core game engine for a single Touch11 Legends daily session.
// Responsibilities:
//   - Track state transitions: not started → in progress → won/lost.
//   - Validate submitted names against the current country's roster.
//   - Resolve eligible positions to open formation slots; request an
//     explicit choice when more than one slot could take the player.
//   - Rotate through a shuffled country queue with no repeats per cycle.
//   - Produce and restore snapshots for autosave/resume.
//
// Notes:
//   - The engine is pure state: no persistence, no presentation. The
//     session layer persists snapshots and translates results into events.
//   - Shuffle order is intentionally non-deterministic; only the daily
//     word/formation selection is date-derived.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/touch11/legends/go-server/internal/roster"
)

// Rejection reasons surfaced to the caller. State is unchanged when any of
// these is returned.
var (
	ErrNotInProgress           = errors.New("game is not in progress")
	ErrInvalidPlayerForCountry = errors.New("player is not from the current country")
	ErrNoAvailablePosition     = errors.New("no available position for player")
	ErrNoPendingChoice         = errors.New("no position choice is pending")
	ErrInvalidChoice           = errors.New("position is not among the offered candidates")
)

// pendingChoice holds a submission waiting for an explicit position pick.
type pendingChoice struct {
	player     string
	candidates []string
}

// Game is the per-day state machine for one player.
type Game struct {
	day          string
	formationKey string
	formation    roster.Formation
	roster       *roster.Roster

	state       State
	surrendered bool

	slotIDs []string                  // "pos-0".."pos-N", parallel to formation.Positions
	filled  map[string]SlotAssignment // keyed by slot id

	countryOrder   []string // shuffled country codes for this cycle
	queueIndex     int      // next position in countryOrder
	currentCountry string   // code, empty before start
	completedCount int

	pending *pendingChoice
	rng     *rand.Rand
}

// New constructs a NotStarted game for the given day and formation key.
// The formation key must exist in the roster.
func New(r *roster.Roster, day, formationKey string, rng *rand.Rand) (*Game, error) {
	f, ok := r.Formations[formationKey]
	if !ok {
		return nil, fmt.Errorf("game: unknown formation %q", formationKey)
	}
	ids := make([]string, len(f.Positions))
	for i := range f.Positions {
		ids[i] = fmt.Sprintf("pos-%d", i)
	}
	return &Game{
		day:          day,
		formationKey: formationKey,
		formation:    f,
		roster:       r,
		state:        StateNotStarted,
		slotIDs:      ids,
		filled:       make(map[string]SlotAssignment),
		rng:          rng,
	}, nil
}

// Start begins a fresh session: shuffled country queue, first country
// dequeued. No-op if the game already left NotStarted.
func (g *Game) Start() {
	if g.state != StateNotStarted {
		return
	}
	g.state = StateInProgress
	g.reshuffle()
	g.advanceCountry()
}

// SubmitName validates a submitted player name against the current country
// and the open slots of the formation.
//
// Outcomes:
//   - ErrInvalidPlayerForCountry: name not rostered under the current country.
//   - ErrNoAvailablePosition: every eligible position is already filled.
//   - Candidates returned: more than one eligible position is open; the
//     caller must complete the turn with ChoosePosition.
//   - Placed returned: exactly one open position, assigned immediately.
//
// A successful submission supersedes any unanswered position choice from a
// previous one.
func (g *Game) SubmitName(name string) (SubmitResult, error) {
	if g.state != StateInProgress {
		return SubmitResult{}, ErrNotInProgress
	}
	name = roster.CanonicalName(name)
	if !g.roster.HasPlayer(g.currentCountry, name) {
		return SubmitResult{}, ErrInvalidPlayerForCountry
	}

	var open []string
	for _, pos := range g.roster.PositionsFor(name) {
		if g.openSlot(pos) != "" {
			open = append(open, pos)
		}
	}
	switch len(open) {
	case 0:
		return SubmitResult{}, ErrNoAvailablePosition
	case 1:
		g.pending = nil
		return g.place(name, open[0]), nil
	default:
		g.pending = &pendingChoice{player: name, candidates: open}
		return SubmitResult{Candidates: open}, nil
	}
}

// ChoosePosition completes a submission that offered several candidates.
func (g *Game) ChoosePosition(position string) (SubmitResult, error) {
	if g.state != StateInProgress {
		return SubmitResult{}, ErrNotInProgress
	}
	if g.pending == nil {
		return SubmitResult{}, ErrNoPendingChoice
	}
	valid := false
	for _, c := range g.pending.candidates {
		if c == position {
			valid = true
			break
		}
	}
	if !valid {
		return SubmitResult{}, ErrInvalidChoice
	}
	name := g.pending.player
	g.pending = nil
	// The slot may have been consumed since the candidates were offered.
	if g.openSlot(position) == "" {
		return SubmitResult{}, ErrNoAvailablePosition
	}
	return g.place(name, position), nil
}

// Surrender moves an in-progress game to Lost with the surrendered flag.
// Calling it in a terminal state is a no-op; the return value reports
// whether the state changed.
func (g *Game) Surrender() bool {
	if g.state != StateInProgress {
		return false
	}
	g.state = StateLost
	g.surrendered = true
	g.pending = nil
	return true
}

// place consumes the first open slot for position and advances the game.
// Callers have already validated the position has an open slot.
func (g *Game) place(name, position string) SubmitResult {
	id := g.openSlot(position)
	sa := SlotAssignment{
		PositionID:  id,
		Position:    position,
		Player:      name,
		CountryCode: g.currentCountry,
	}
	g.filled[id] = sa
	g.completedCount++

	if g.completedCount >= len(g.formation.Positions) {
		g.state = StateWon
		return SubmitResult{Placed: &sa, Won: true}
	}
	g.advanceCountry()
	return SubmitResult{Placed: &sa, NextCountry: g.CurrentCountry()}
}

// openSlot returns the id of the first unfilled slot with the given
// position code, or "" when none is open.
func (g *Game) openSlot(position string) string {
	for i, slot := range g.formation.Positions {
		if slot.Position != position {
			continue
		}
		if _, taken := g.filled[g.slotIDs[i]]; !taken {
			return g.slotIDs[i]
		}
	}
	return ""
}

// advanceCountry dequeues the next country, reshuffling and restarting the
// queue when a full cycle has been consumed. No country repeats until all
// have been used once per cycle.
func (g *Game) advanceCountry() {
	if g.queueIndex >= len(g.countryOrder) {
		g.reshuffle()
	}
	g.currentCountry = g.countryOrder[g.queueIndex]
	g.queueIndex++
}

// reshuffle rebuilds the country queue as a fresh uniform permutation.
func (g *Game) reshuffle() {
	codes := make([]string, len(g.roster.Countries))
	for i, c := range g.roster.Countries {
		codes[i] = c.Code
	}
	if g.rng != nil {
		g.rng.Shuffle(len(codes), func(i, j int) { codes[i], codes[j] = codes[j], codes[i] })
	} else {
		rand.Shuffle(len(codes), func(i, j int) { codes[i], codes[j] = codes[j], codes[i] })
	}
	g.countryOrder = codes
	g.queueIndex = 0
}

// ------------------------------ accessors ----------------------------------

// State returns the current lifecycle state.
func (g *Game) State() State { return g.state }

// Surrendered reports whether a loss came from surrender.
func (g *Game) Surrendered() bool { return g.surrendered }

// Day returns the calendar day this game belongs to.
func (g *Game) Day() string { return g.day }

// FormationKey returns the daily formation key.
func (g *Game) FormationKey() string { return g.formationKey }

// TotalSlots returns the number of slots the formation requires.
func (g *Game) TotalSlots() int { return len(g.formation.Positions) }

// CompletedCount returns the number of filled slots.
func (g *Game) CompletedCount() int { return g.completedCount }

// CurrentCountry returns the country currently being prompted, or nil
// before start / after a terminal transition.
func (g *Game) CurrentCountry() *roster.Country {
	if g.currentCountry == "" {
		return nil
	}
	for i := range g.roster.Countries {
		if g.roster.Countries[i].Code == g.currentCountry {
			c := g.roster.Countries[i]
			return &c
		}
	}
	return nil
}

// PendingCandidates returns the open positions offered by the last
// SubmitName call, or nil when no choice is pending.
func (g *Game) PendingCandidates() []string {
	if g.pending == nil {
		return nil
	}
	return append([]string(nil), g.pending.candidates...)
}

// Filled returns a copy of the slot assignments keyed by slot id.
func (g *Game) Filled() map[string]SlotAssignment {
	out := make(map[string]SlotAssignment, len(g.filled))
	for k, v := range g.filled {
		out[k] = v
	}
	return out
}

// ------------------------------ snapshots ----------------------------------

// Snapshot captures the in-progress state for autosave.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Filled:         g.Filled(),
		CountryOrder:   append([]string(nil), g.countryOrder...),
		QueueIndex:     g.queueIndex,
		CurrentCountry: g.currentCountry,
		CompletedCount: g.completedCount,
		Started:        g.state != StateNotStarted,
	}
}

// RestoreProgress rehydrates a NotStarted game into InProgress from a
// saved snapshot.
func (g *Game) RestoreProgress(s Snapshot) error {
	if g.state != StateNotStarted {
		return errors.New("game: cannot restore into a started game")
	}
	g.state = StateInProgress
	g.filled = make(map[string]SlotAssignment, len(s.Filled))
	for k, v := range s.Filled {
		g.filled[k] = v
	}
	g.completedCount = s.CompletedCount
	g.queueIndex = s.QueueIndex
	g.currentCountry = s.CurrentCountry
	if len(s.CountryOrder) > 0 {
		g.countryOrder = append([]string(nil), s.CountryOrder...)
	} else {
		// Saved before queue order was recorded: rebuild a fresh cycle.
		g.reshuffle()
		g.queueIndex = 0
	}
	if g.currentCountry == "" {
		g.advanceCountry()
	}
	return nil
}

// RestoreFinalized rehydrates a terminal game from a finalized record.
// Input is disabled from here on: Submit/Choose return ErrNotInProgress.
func (g *Game) RestoreFinalized(filled map[string]SlotAssignment, completedCount int, won, surrendered bool) {
	g.filled = make(map[string]SlotAssignment, len(filled))
	for k, v := range filled {
		g.filled[k] = v
	}
	g.completedCount = completedCount
	g.surrendered = surrendered
	if won {
		g.state = StateWon
	} else {
		g.state = StateLost
	}
}
