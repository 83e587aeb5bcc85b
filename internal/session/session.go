// internal/session/session.go
//
// SessionOrchestrator: wires the daily selector, roster, game engine,
// persistence gateway, and stats aggregator into the externally observable
// API (initialize, start, submit, choose, surrender, stats).
//
// Model:
//   - One logical game per player identity per calendar day, held in the
//     live map while the process runs and autosaved after every mutation.
//   - Rehydration precedence on Start: finalized record → in-progress
//     record → fresh game.
//   - All operations reject until Initialize has completed.
//   - A single mutex serializes mutations, which also gives per-key write
//     ordering for the gateway.
//   - The rollover timer fires at 00:01 reference time, clears the shared
//     daily tally (never historical records), and re-arms itself.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/touch11/legends/go-server/internal/daily"
	"github.com/touch11/legends/go-server/internal/game"
	"github.com/touch11/legends/go-server/internal/roster"
	"github.com/touch11/legends/go-server/internal/store"
)

var (
	// ErrNotInitialized is returned while the roster load is pending.
	ErrNotInitialized = errors.New("session: orchestrator not initialized")
	// ErrNoActiveGame is returned when a mutation arrives before Start.
	ErrNoActiveGame = errors.New("session: no active game, call start first")
)

// Challenge is the deterministic daily selection. Recomputed from the day,
// never stored.
type Challenge struct {
	Day          string `json:"day"`
	Word         string `json:"word"`
	FormationKey string `json:"formation"`
}

// View is the externally observable state of a player's daily game.
type View struct {
	Challenge
	FormationName     string                         `json:"formationName"`
	Slots             []roster.Slot                  `json:"slots"`
	State             game.State                     `json:"state"`
	Filled            map[string]game.SlotAssignment `json:"filledPositions"`
	CompletedCount    int                            `json:"completedCount"`
	TotalSlots        int                            `json:"totalSlots"`
	CurrentCountry    *roster.Country                `json:"currentCountry,omitempty"`
	PendingCandidates []string                       `json:"pendingCandidates,omitempty"`
	Surrendered       bool                           `json:"surrendered"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithListener installs a collaborator event listener.
func WithListener(l Listener) Option { return func(o *Orchestrator) { o.listener = l } }

// WithOffset overrides the reference UTC offset.
func WithOffset(hours int) Option { return func(o *Orchestrator) { o.offset = hours } }

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithRoster injects an already-built roster, bypassing the file load.
func WithRoster(r *roster.Roster) Option { return func(o *Orchestrator) { o.roster = r } }

// Orchestrator coordinates all per-player daily sessions.
type Orchestrator struct {
	gw       store.Gateway
	listener Listener
	offset   int
	now      func() time.Time

	rosters *roster.Store

	mu     sync.Mutex
	roster *roster.Roster
	ready  bool
	live   map[string]*game.Game // keyed playerID|day

	rollover *time.Timer
}

// New constructs an Orchestrator over a persistence gateway. Initialize
// must be called before game operations are accepted.
func New(gw store.Gateway, rosterPath, wordsPath string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gw:       gw,
		listener: NopListener{},
		offset:   daily.DefaultOffsetHours,
		now:      time.Now,
		rosters:  roster.NewStore(rosterPath, wordsPath),
		live:     make(map[string]*game.Game),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Initialize loads the roster (the only suspending startup step) and arms
// the rollover timer. Safe to call again; re-initialization re-arms the
// timer without leaking the previous one.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.roster == nil {
		o.roster = o.rosters.Roster()
	}
	o.ready = true
	o.armRolloverLocked()
	countries, players, formations, words := o.roster.Stats()
	log.Info().
		Int("countries", countries).
		Int("players", players).
		Int("formations", formations).
		Int("words", words).
		Msg("session orchestrator ready")
	return nil
}

// Close cancels the rollover timer.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rollover != nil {
		o.rollover.Stop()
		o.rollover = nil
	}
}

// Today returns the current CalendarDay under the reference offset.
func (o *Orchestrator) Today() string {
	return daily.DateKey(o.now(), o.offset)
}

// RosterStats reports counts of loaded reference data.
func (o *Orchestrator) RosterStats() (countries, players, formations, words int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return 0, 0, 0, 0, ErrNotInitialized
	}
	countries, players, formations, words = o.roster.Stats()
	return countries, players, formations, words, nil
}

// Challenge derives the daily word and formation for a day.
func (o *Orchestrator) Challenge(day string) (Challenge, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return Challenge{}, ErrNotInitialized
	}
	return o.challengeLocked(day)
}

func (o *Orchestrator) challengeLocked(day string) (Challenge, error) {
	wi, err := daily.SelectIndex(day, len(o.roster.Words))
	if err != nil {
		return Challenge{}, err
	}
	keys := o.roster.FormationKeys()
	fi, err := daily.SelectIndex(day, len(keys))
	if err != nil {
		return Challenge{}, err
	}
	return Challenge{Day: day, Word: o.roster.Words[wi], FormationKey: keys[fi]}, nil
}

// Start opens (or resumes) today's game for a player. A finalized day
// rehydrates into its terminal state with input disabled; an autosaved day
// resumes in progress; otherwise a fresh game begins with a shuffled
// country queue. Calling Start twice on the same day is idempotent.
func (o *Orchestrator) Start(ctx context.Context, playerID string) (*View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return nil, ErrNotInitialized
	}
	day := daily.DateKey(o.now(), o.offset)
	ch, err := o.challengeLocked(day)
	if err != nil {
		return nil, err
	}

	key := playerID + "|" + day
	if g, ok := o.live[key]; ok {
		return o.viewLocked(ch, g), nil
	}
	o.pruneLocked(playerID, day)

	g, err := game.New(o.roster, day, ch.FormationKey, nil)
	if err != nil {
		return nil, err
	}

	var fin FinalizedRecord
	if loadJSON(ctx, o.gw, finalizedKey(playerID, day), &fin) && fin.Completed {
		g.RestoreFinalized(fin.FilledPositions, fin.CompletedCount, fin.Won, fin.Surrendered)
		o.live[key] = g
		o.listener.ChallengeReady(ch)
		if fin.Won {
			o.listener.GameWon()
		} else {
			o.listener.GameLost(fin.Surrendered)
		}
		return o.viewLocked(ch, g), nil
	}

	var prog ProgressRecord
	if loadJSON(ctx, o.gw, progressKey(playerID, day), &prog) &&
		prog.Started && prog.Formation == ch.FormationKey {
		if err := g.RestoreProgress(prog.Snapshot); err != nil {
			return nil, err
		}
	} else {
		g.Start()
		o.autosave(ctx, playerID, g)
	}
	o.live[key] = g

	o.listener.ChallengeReady(ch)
	if c := g.CurrentCountry(); c != nil {
		o.listener.CountryAdvanced(*c)
	}
	return o.viewLocked(ch, g), nil
}

// SubmitName submits a player name for the current country. Rejections
// (wrong country, no open position) leave state unchanged and are reported
// both as the returned error and through the listener.
func (o *Orchestrator) SubmitName(ctx context.Context, playerID, name string) (game.SubmitResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, err := o.liveLocked(playerID)
	if err != nil {
		return game.SubmitResult{}, err
	}
	res, err := g.SubmitName(name)
	if err != nil {
		o.listener.EntryRejected(err)
		return game.SubmitResult{}, err
	}
	if len(res.Candidates) > 0 {
		o.listener.PositionChoiceNeeded(roster.CanonicalName(name), res.Candidates)
		return res, nil
	}
	o.afterPlacement(ctx, playerID, g, res)
	return res, nil
}

// ChoosePosition completes a submission that required an explicit
// position choice.
func (o *Orchestrator) ChoosePosition(ctx context.Context, playerID, position string) (game.SubmitResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, err := o.liveLocked(playerID)
	if err != nil {
		return game.SubmitResult{}, err
	}
	res, err := g.ChoosePosition(position)
	if err != nil {
		o.listener.EntryRejected(err)
		return game.SubmitResult{}, err
	}
	o.afterPlacement(ctx, playerID, g, res)
	return res, nil
}

// Surrender finalizes today's game as a surrendered loss. Idempotent:
// surrendering a finished game reports false and changes nothing.
func (o *Orchestrator) Surrender(ctx context.Context, playerID string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, err := o.liveLocked(playerID)
	if err != nil {
		return false, err
	}
	if !g.Surrender() {
		return false, nil
	}
	o.finalize(ctx, playerID, g, false)
	return true, nil
}

// State returns the current view of today's game without mutating it.
func (o *Orchestrator) State(ctx context.Context, playerID string) (*View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	g, err := o.liveLocked(playerID)
	if err != nil {
		return nil, err
	}
	ch, err := o.challengeLocked(g.Day())
	if err != nil {
		return nil, err
	}
	return o.viewLocked(ch, g), nil
}

// Stats aggregates the player's full finalized history plus the weekly win
// histogram.
func (o *Orchestrator) Stats(ctx context.Context, playerID string) (LifetimeStats, WeeklyHistogram, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return LifetimeStats{}, WeeklyHistogram{}, ErrNotInitialized
	}
	keys, err := o.gw.Keys(ctx, finalizedPrefix(playerID))
	if err != nil {
		return LifetimeStats{}, WeeklyHistogram{}, err
	}
	// Keys sort ascending, and the day suffix sorts chronologically.
	records := make([]FinalizedRecord, 0, len(keys))
	for _, k := range keys {
		var rec FinalizedRecord
		if loadJSON(ctx, o.gw, k, &rec) {
			records = append(records, rec)
		}
	}
	stats := ComputeLifetimeStats(records, daily.DateKey(o.now(), o.offset))
	week := readHistogram(ctx, o.gw)
	o.listener.StatsReady(stats, week)
	return stats, week, nil
}

// TodayTally reads the shared daily win/loss tally.
func (o *Orchestrator) TodayTally(ctx context.Context) Tally {
	var t Tally
	loadJSON(ctx, o.gw, tallyKey(daily.DateKey(o.now(), o.offset)), &t)
	return t
}

// ----------------------------- internals -----------------------------------

// liveLocked returns today's live game for a player.
func (o *Orchestrator) liveLocked(playerID string) (*game.Game, error) {
	if !o.ready {
		return nil, ErrNotInitialized
	}
	day := daily.DateKey(o.now(), o.offset)
	if g, ok := o.live[playerID+"|"+day]; ok {
		return g, nil
	}
	return nil, ErrNoActiveGame
}

// pruneLocked drops a player's live games from previous days; a new
// CalendarDay implies a fresh NotStarted state.
func (o *Orchestrator) pruneLocked(playerID, day string) {
	prefix := playerID + "|"
	for k := range o.live {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix && k != prefix+day {
			delete(o.live, k)
		}
	}
}

// afterPlacement persists and emits events for a completed placement.
func (o *Orchestrator) afterPlacement(ctx context.Context, playerID string, g *game.Game, res game.SubmitResult) {
	o.listener.SlotFilled(*res.Placed)
	if res.Won {
		o.finalize(ctx, playerID, g, true)
		return
	}
	o.autosave(ctx, playerID, g)
	if res.NextCountry != nil {
		o.listener.CountryAdvanced(*res.NextCountry)
	}
}

// autosave writes the in-progress snapshot for resume-on-reload.
func (o *Orchestrator) autosave(ctx context.Context, playerID string, g *game.Game) {
	rec := ProgressRecord{
		SchemaVersion: SchemaVersion,
		Snapshot:      g.Snapshot(),
		Formation:     g.FormationKey(),
		Timestamp:     o.now().UnixMilli(),
	}
	saveJSON(ctx, o.gw, progressKey(playerID, g.Day()), rec)
}

// finalize writes the permanent daily record, bumps the shared tally and
// (on a win) the weekly histogram, clears the autosave, and notifies the
// listener. Runs exactly once per day per player: terminal games reject
// further mutations.
func (o *Orchestrator) finalize(ctx context.Context, playerID string, g *game.Game, won bool) {
	day := g.Day()
	rec := FinalizedRecord{
		SchemaVersion:   SchemaVersion,
		Completed:       true,
		Won:             won,
		Surrendered:     g.Surrendered(),
		Date:            day,
		Formation:       g.FormationKey(),
		FilledPositions: g.Filled(),
		CompletedCount:  g.CompletedCount(),
		Timestamp:       o.now().UnixMilli(),
	}
	saveJSON(ctx, o.gw, finalizedKey(playerID, day), rec)

	var t Tally
	loadJSON(ctx, o.gw, tallyKey(day), &t)
	t.SchemaVersion = SchemaVersion
	if won {
		t.Wins++
	} else {
		t.Losses++
	}
	saveJSON(ctx, o.gw, tallyKey(day), t)

	if won {
		if err := bumpHistogram(ctx, o.gw, daily.Weekday(o.now(), o.offset)); err != nil {
			log.Warn().Err(err).Msg("update weekly histogram")
		}
	}

	if err := o.gw.Remove(ctx, progressKey(playerID, day)); err != nil {
		log.Warn().Err(err).Msg("clear autosave")
	}

	if won {
		o.listener.GameWon()
	} else {
		o.listener.GameLost(g.Surrendered())
	}
}

// viewLocked assembles the externally observable state.
func (o *Orchestrator) viewLocked(ch Challenge, g *game.Game) *View {
	f := o.roster.Formations[g.FormationKey()]
	return &View{
		Challenge:         ch,
		FormationName:     f.Name,
		Slots:             f.Positions,
		State:             g.State(),
		Filled:            g.Filled(),
		CompletedCount:    g.CompletedCount(),
		TotalSlots:        g.TotalSlots(),
		CurrentCountry:    currentIfPlaying(g),
		PendingCandidates: g.PendingCandidates(),
		Surrendered:       g.Surrendered(),
	}
}

// currentIfPlaying hides the country prompt once the game is over.
func currentIfPlaying(g *game.Game) *roster.Country {
	if g.State() != game.StateInProgress {
		return nil
	}
	return g.CurrentCountry()
}

// ----------------------------- rollover ------------------------------------

// armRolloverLocked schedules (or reschedules) the 00:01 boundary timer.
func (o *Orchestrator) armRolloverLocked() {
	if o.rollover != nil {
		o.rollover.Stop()
	}
	d := daily.NextRollover(o.now(), o.offset)
	o.rollover = time.AfterFunc(d, o.onRollover)
	log.Debug().Dur("in", d).Msg("daily rollover armed")
}

// onRollover clears the tally of the day that just ended and re-arms the
// timer for the next boundary.
func (o *Orchestrator) onRollover() {
	o.mu.Lock()
	newDay := daily.DateKey(o.now(), o.offset)
	if t, err := time.Parse("2006-01-02", newDay); err == nil {
		prev := t.AddDate(0, 0, -1).Format("2006-01-02")
		if err := o.gw.Remove(context.Background(), tallyKey(prev)); err != nil {
			log.Warn().Err(err).Str("day", prev).Msg("clear daily tally")
		}
	}
	o.armRolloverLocked()
	o.mu.Unlock()

	log.Info().Str("day", newDay).Msg("daily rollover fired")
	o.listener.DayRolledOver(newDay)
}
