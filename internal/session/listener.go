// internal/session/listener.go
//
// Collaborator-facing event surface. The core never touches presentation;
// it notifies a Listener of state changes and the presentation layer (or a
// test double) decides what to do with them.

package session

import (
	"github.com/touch11/legends/go-server/internal/game"
	"github.com/touch11/legends/go-server/internal/roster"
)

// Listener receives core → presentation notifications. Implementations
// must not call back into the orchestrator from a notification.
type Listener interface {
	// ChallengeReady fires once per Start with the day's derived challenge.
	ChallengeReady(c Challenge)
	// CountryAdvanced fires whenever a new country is prompted.
	CountryAdvanced(c roster.Country)
	// SlotFilled fires after every successful placement.
	SlotFilled(a game.SlotAssignment)
	// PositionChoiceNeeded fires when a submission must be completed with
	// an explicit position choice among candidates.
	PositionChoiceNeeded(player string, candidates []string)
	// EntryRejected fires when a submission is refused; reason is one of
	// the game package sentinel errors.
	EntryRejected(reason error)
	// GameWon / GameLost fire exactly once per day on the terminal
	// transition, or on rehydration of a finalized record.
	GameWon()
	GameLost(surrendered bool)
	// StatsReady fires after a stats query with the aggregated results.
	StatsReady(stats LifetimeStats, week WeeklyHistogram)
	// DayRolledOver fires when the midnight boundary timer clears the
	// shared daily tally; the presentation should refresh.
	DayRolledOver(newDay string)
}

// NopListener discards all notifications.
type NopListener struct{}

func (NopListener) ChallengeReady(Challenge)                  {}
func (NopListener) CountryAdvanced(roster.Country)            {}
func (NopListener) SlotFilled(game.SlotAssignment)            {}
func (NopListener) PositionChoiceNeeded(string, []string)     {}
func (NopListener) EntryRejected(error)                       {}
func (NopListener) GameWon()                                  {}
func (NopListener) GameLost(bool)                             {}
func (NopListener) StatsReady(LifetimeStats, WeeklyHistogram) {}
func (NopListener) DayRolledOver(string)                      {}
