// internal/roster/roster.go
//
// Reference data for the formation game: countries, players per country,
// eligible positions per player, formation templates, and the daily word
// list.
//
// Responsibilities:
//   - Load the structured roster JSON and the line-delimited word list from
//     configured paths, or fall back to embedded defaults on any failure.
//   - Normalize player names to a canonical form (uppercase, trimmed,
//     unique per country).
//   - Synthesize eligible-position entries for players missing from the
//     playerPositions mapping (goalkeeper allowlist → ["GK"], otherwise a
//     generic ["CM"]).
//   - Synthesize default formation templates when the document omits them.
//
// Loading behavior:
//   - A Store loads exactly once (sync.Once) and never returns an error: a
//     fetch or parse failure downgrades to the embedded fallback roster
//     with a logged warning. The record is immutable for the session.
//     Memoization is per Store, so independent consumers configured with
//     different paths get independent loads.

package roster

import (
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/touch11/legends/go-server/assets"
)

// Country is one selectable country entry.
type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Slot is one position instance within a formation template. A formation
// may repeat a position code (e.g. two CBs); Row groups slots for layout.
type Slot struct {
	Position string `json:"position"`
	Row      string `json:"row"`
}

// Formation is a named template of ordered slots.
type Formation struct {
	Name      string `json:"name"`
	Positions []Slot `json:"positions"`
}

// Roster is the immutable reference record for a session.
type Roster struct {
	Countries        []Country
	PlayersByCountry map[string][]string
	PlayerPositions  map[string][]string
	Formations       map[string]Formation
	Words            []string

	formationKeys []string // sorted, for deterministic daily selection
}

// document mirrors the on-disk roster JSON. playerPositions and formations
// are optional and synthesized when absent.
type document struct {
	Countries        []Country            `json:"countries"`
	PlayersByCountry map[string][]string  `json:"playersByCountry"`
	PlayerPositions  map[string][]string  `json:"playerPositions"`
	Formations       map[string]Formation `json:"formations"`
}

// goalkeeperNames is the allowlist used when synthesizing positions for
// players absent from the playerPositions mapping.
var goalkeeperNames = map[string]struct{}{
	"OSPINA": {}, "ALISSON": {}, "NEUER": {}, "LLORIS": {}, "COURTOIS": {},
	"MARTINEZ": {}, "ARMANI": {}, "EDERSON": {}, "PATRICIO": {}, "MUSLERA": {},
	"OCHOA": {}, "BRAVO": {}, "GALLESE": {}, "GALINDEZ": {}, "VARGAS": {},
}

// Store memoizes a single load attempt for its configured paths.
type Store struct {
	rosterPath string
	wordsPath  string

	once sync.Once
	r    *Roster
}

// NewStore configures a Store; nothing is read until Roster is called.
func NewStore(rosterPath, wordsPath string) *Store {
	return &Store{rosterPath: rosterPath, wordsPath: wordsPath}
}

// Roster reads the roster and word list exactly once and memoizes the
// result. Any failure substitutes the embedded fallback and is logged,
// never propagated.
func (s *Store) Roster() *Roster {
	s.once.Do(func() {
		s.r = loadFresh(s.rosterPath, s.wordsPath)
	})
	return s.r
}

// loadFresh performs a single non-memoized load attempt.
func loadFresh(rosterPath, wordsPath string) *Roster {
	words, err := readWordsFile(wordsPath)
	if err != nil {
		log.Warn().Err(err).Str("path", wordsPath).Msg("word list unavailable, using embedded defaults")
		words, _ = assets.DefaultWordsList()
	}

	raw, err := os.ReadFile(rosterPath)
	if err != nil {
		log.Warn().Err(err).Str("path", rosterPath).Msg("roster unavailable, using embedded defaults")
		return Fallback(words)
	}
	r, err := Parse(raw, words)
	if err != nil {
		log.Warn().Err(err).Str("path", rosterPath).Msg("roster invalid, using embedded defaults")
		return Fallback(words)
	}
	return r
}

// Parse builds a normalized Roster from a roster JSON document and an
// already-normalized word list.
func Parse(raw []byte, words []string) (*Roster, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if len(doc.Countries) == 0 {
		return nil, errors.New("roster: no countries")
	}
	if len(doc.PlayersByCountry) == 0 {
		return nil, errors.New("roster: no players")
	}

	r := &Roster{
		Countries:        doc.Countries,
		PlayersByCountry: make(map[string][]string, len(doc.PlayersByCountry)),
		PlayerPositions:  make(map[string][]string),
		Formations:       doc.Formations,
		Words:            words,
	}

	// Canonical player names: uppercase, trimmed, unique per country.
	for code, players := range doc.PlayersByCountry {
		seen := make(map[string]struct{}, len(players))
		out := make([]string, 0, len(players))
		for _, p := range players {
			name := CanonicalName(p)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
		r.PlayersByCountry[code] = out
	}

	for name, positions := range doc.PlayerPositions {
		if len(positions) > 0 {
			r.PlayerPositions[CanonicalName(name)] = positions
		}
	}
	r.synthesizePositions()

	if len(r.Formations) == 0 {
		r.Formations = DefaultFormations()
	}
	for key, f := range r.Formations {
		if len(f.Positions) == 0 {
			return nil, errors.New("roster: formation " + key + " has no positions")
		}
	}
	r.indexFormations()
	return r, nil
}

// Fallback returns the embedded default roster. words may be nil, in which
// case the embedded word list is used.
func Fallback(words []string) *Roster {
	if len(words) == 0 {
		words, _ = assets.DefaultWordsList()
	}
	raw, err := assets.DefaultRosterJSON()
	if err != nil {
		// Embedded data is part of the binary; reaching this means a
		// broken build, not a runtime condition.
		panic("roster: embedded defaults missing: " + err.Error())
	}
	r, err := Parse(raw, words)
	if err != nil {
		panic("roster: embedded defaults invalid: " + err.Error())
	}
	return r
}

// CanonicalName normalizes a player name for lookups and storage.
func CanonicalName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// synthesizePositions guarantees every rostered player has a non-empty
// eligible-position list.
func (r *Roster) synthesizePositions() {
	for _, players := range r.PlayersByCountry {
		for _, name := range players {
			if len(r.PlayerPositions[name]) > 0 {
				continue
			}
			if _, gk := goalkeeperNames[name]; gk {
				r.PlayerPositions[name] = []string{"GK"}
			} else {
				r.PlayerPositions[name] = []string{"CM"}
			}
		}
	}
}

// indexFormations records formation keys in sorted order so the daily
// selection sees a stable list regardless of map iteration.
func (r *Roster) indexFormations() {
	keys := make([]string, 0, len(r.Formations))
	for k := range r.Formations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	r.formationKeys = keys
}

// FormationKeys returns the ordered formation keys.
func (r *Roster) FormationKeys() []string { return r.formationKeys }

// HasPlayer reports whether name is rostered under the given country code.
// The name must already be canonical.
func (r *Roster) HasPlayer(countryCode, name string) bool {
	for _, p := range r.PlayersByCountry[countryCode] {
		if p == name {
			return true
		}
	}
	return false
}

// PositionsFor returns the eligible positions for a canonical player name.
// Unknown names get the generic midfield fallback.
func (r *Roster) PositionsFor(name string) []string {
	if pos, ok := r.PlayerPositions[name]; ok {
		return pos
	}
	return []string{"CM"}
}

// Stats returns counts of loaded data: (countries, players, formations, words).
func (r *Roster) Stats() (countries, players, formations, words int) {
	for _, ps := range r.PlayersByCountry {
		players += len(ps)
	}
	return len(r.Countries), players, len(r.Formations), len(r.Words)
}

// readWordsFile loads one word per line, trims, uppercases, and skips
// blanks and #-comments.
func readWordsFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		w := strings.ToUpper(strings.TrimSpace(line))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, errors.New("roster: word list is empty")
	}
	return out, nil
}

// DefaultFormations returns the built-in formation templates used when the
// roster document omits them.
func DefaultFormations() map[string]Formation {
	return map[string]Formation{
		"4-3-3": {
			Name: "Classic 4-3-3",
			Positions: []Slot{
				{Position: "GK", Row: "goalkeeper"},
				{Position: "LB", Row: "defense"},
				{Position: "CB", Row: "defense"},
				{Position: "CB", Row: "defense"},
				{Position: "RB", Row: "defense"},
				{Position: "CDM", Row: "midfield"},
				{Position: "CM", Row: "midfield"},
				{Position: "CM", Row: "midfield"},
				{Position: "LW", Row: "attack"},
				{Position: "ST", Row: "attack"},
				{Position: "RW", Row: "attack"},
			},
		},
		"4-2-3-1": {
			Name: "Balanced 4-2-3-1",
			Positions: []Slot{
				{Position: "GK", Row: "goalkeeper"},
				{Position: "LB", Row: "defense"},
				{Position: "CB", Row: "defense"},
				{Position: "CB", Row: "defense"},
				{Position: "RB", Row: "defense"},
				{Position: "CDM", Row: "midfield"},
				{Position: "CDM", Row: "midfield"},
				{Position: "LW", Row: "attack-mid"},
				{Position: "CAM", Row: "attack-mid"},
				{Position: "RW", Row: "attack-mid"},
				{Position: "ST", Row: "attack"},
			},
		},
	}
}
