// internal/game/types.go
//
// Core type definitions for the formation game engine.
// Defines:
//   - State: lifecycle of a daily session (not started → in progress → won/lost).
//   - SlotAssignment: a player locked into one formation slot.
//   - SubmitResult: outcome of submitting a name or completing a position choice.
//   - Snapshot: serializable in-progress state for autosave round-trips.

package game

import "github.com/touch11/legends/go-server/internal/roster"

// State is the lifecycle state of a daily game session.
// Won and Lost are terminal for the calendar day; a new day implies a
// fresh NotStarted game.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Terminal reports whether s is a final state.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// SlotAssignment records a player placed into one specific slot instance.
// Immutable once created.
type SlotAssignment struct {
	PositionID  string `json:"positionId"`
	Position    string `json:"position"`
	Player      string `json:"player"`
	CountryCode string `json:"countryCode"`
}

// SubmitResult is the outcome of SubmitName or ChoosePosition.
// Exactly one of Placed/Candidates is set on success:
//   - Placed non-nil: the player was assigned to a slot.
//   - Candidates non-empty: several positions are open and the caller must
//     follow up with ChoosePosition before the assignment proceeds.
type SubmitResult struct {
	Placed     *SlotAssignment `json:"placed,omitempty"`
	Candidates []string        `json:"candidates,omitempty"`
	Won        bool            `json:"won"`
	// NextCountry is the country to prompt for after a placement.
	// Nil when the game just ended or a choice is pending.
	NextCountry *roster.Country `json:"nextCountry,omitempty"`
}

// Snapshot is the serializable in-progress state of a game. Restoring a
// snapshot on the same day reproduces identical filled slots, completed
// count, and current country.
type Snapshot struct {
	Filled         map[string]SlotAssignment `json:"filledPositions"`
	CountryOrder   []string                  `json:"countryOrder"`
	QueueIndex     int                       `json:"currentCountryIndex"`
	CurrentCountry string                    `json:"currentCountry"`
	CompletedCount int                       `json:"completedCount"`
	Started        bool                      `json:"gameStarted"`
}
