// internal/session/records.go
//
// Persisted record shapes and key namespace for the session layer.
//
// Keys (all through the store.Gateway):
//   touch11_legends_{playerID}_{day}           finalized daily outcome
//   touch11_legends_progress_{playerID}_{day}  autosaved in-progress state
//   touch11_score_{day}                        shared daily win/loss tally
//   touch11_legends_week_{weekday}             weekly win histogram (1..7)
//
// Every JSON record carries schemaVersion for forward-compatible
// migration. A record that fails to parse is treated as absent.

package session

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/touch11/legends/go-server/internal/game"
	"github.com/touch11/legends/go-server/internal/store"
)

// SchemaVersion is written into every persisted record.
const SchemaVersion = 1

const keyPrefix = "touch11"

func finalizedKey(playerID, day string) string {
	return keyPrefix + "_legends_" + playerID + "_" + day
}

func finalizedPrefix(playerID string) string {
	return keyPrefix + "_legends_" + playerID + "_"
}

func progressKey(playerID, day string) string {
	return keyPrefix + "_legends_progress_" + playerID + "_" + day
}

func tallyKey(day string) string {
	return keyPrefix + "_score_" + day
}

func weekKey(weekday int) string {
	return keyPrefix + "_legends_week_" + strconv.Itoa(weekday)
}

// FinalizedRecord is the permanent outcome of a completed day. It can
// never be re-opened to in-progress.
type FinalizedRecord struct {
	SchemaVersion   int                            `json:"schemaVersion"`
	Completed       bool                           `json:"completed"`
	Won             bool                           `json:"won"`
	Surrendered     bool                           `json:"surrendered"`
	Date            string                         `json:"date"`
	Formation       string                         `json:"formation"`
	FilledPositions map[string]game.SlotAssignment `json:"filledPositions"`
	CompletedCount  int                            `json:"completedCount"`
	Timestamp       int64                          `json:"timestamp"`
}

// ProgressRecord is the autosaved state of a game still being played.
type ProgressRecord struct {
	SchemaVersion int `json:"schemaVersion"`
	game.Snapshot
	Formation string `json:"formation"`
	Timestamp int64  `json:"timestamp"`
}

// Tally is the shared per-day win/loss counter, cleared at rollover.
type Tally struct {
	SchemaVersion int `json:"schemaVersion"`
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
}

// loadJSON decodes the record under key into v. Absence and malformed
// content both report ok=false; corrupt data is logged and skipped, never
// fatal.
func loadJSON(ctx context.Context, gw store.Gateway, key string, v any) (ok bool) {
	raw, found, err := gw.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("read persisted record")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("malformed persisted record, ignoring")
		return false
	}
	return true
}

// saveJSON encodes v under key. Write failures are surfaced as warnings;
// the game continues in memory.
func saveJSON(ctx context.Context, gw store.Gateway, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("encode persisted record")
		return
	}
	if err := gw.Set(ctx, key, string(raw)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("persist record failed, continuing in memory")
	}
}
