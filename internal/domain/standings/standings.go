// Package standings owns the mutable per-run rating state. A Store is
// created for one replay or ingest run, fed game results in
// chronological order by a single writer, and discarded afterwards.
// Multiple independent runs never share a Store.
package standings

import (
	"sort"
	"time"

	"github.com/riftline/mmr/internal/domain/formula"
	"github.com/riftline/mmr/internal/domain/model"
)

// defaultHistoryCap bounds the per-player rating history ring.
const defaultHistoryCap = 100

// RatingState is one player's cumulative state within a run. Values
// handed out by the Store are copies; the canonical state never leaves
// the Store.
type RatingState struct {
	Key         model.PlayerKey
	DisplayName string
	Rating      float64
	History     []float64 // most recent last, capped
	GamesPlayed int
	Wins        int
	Top3        int
	Kills       int
	Assists     int
	DamageDealt float64
	Revives     int
	UpdatedAt   time.Time
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithHistoryCap overrides the per-player rating history bound.
func WithHistoryCap(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

// Store maps player keys to their rating state for one run.
// It is not safe for concurrent writers; the orchestrator processes
// games sequentially, which is the only access pattern the engine needs.
type Store struct {
	states     map[model.PlayerKey]*RatingState
	historyCap int
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		states:     make(map[model.PlayerKey]*RatingState),
		historyCap: defaultHistoryCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrInit returns the state for key, creating it seeded at the
// initial rating if the player has not been seen this run. The history
// starts out containing the seed value.
func (s *Store) GetOrInit(key model.PlayerKey, displayName string) RatingState {
	return *s.getOrInit(key, displayName, formula.InitialRating)
}

// Seed creates the state for key with a specific starting rating, used
// when a run begins from persisted ratings. Seeding an already-present
// key is a no-op.
func (s *Store) Seed(key model.PlayerKey, displayName string, rating float64) {
	s.getOrInit(key, displayName, rating)
}

func (s *Store) getOrInit(key model.PlayerKey, displayName string, seed float64) *RatingState {
	if st, ok := s.states[key]; ok {
		if st.DisplayName == "" && displayName != "" {
			st.DisplayName = displayName
		}
		return st
	}
	st := &RatingState{
		Key:         key,
		DisplayName: displayName,
		Rating:      seed,
		History:     []float64{seed},
	}
	s.states[key] = st
	return st
}

// Rating returns the player's current rating, or the initial rating for
// a player not yet tracked. It never creates state.
func (s *Store) Rating(key model.PlayerKey) float64 {
	if st, ok := s.states[key]; ok {
		return st.Rating
	}
	return formula.InitialRating
}

// ApplyGameResult folds one game's outcome into the player's state:
// the new rating is appended to the capped history and the cumulative
// totals are advanced.
func (s *Store) ApplyGameResult(key model.PlayerKey, res model.RatingUpdateResult) {
	st := s.getOrInit(key, res.Stat.DisplayName, formula.InitialRating)

	st.Rating = res.NewRating
	st.History = append(st.History, res.NewRating)
	if over := len(st.History) - s.historyCap; over > 0 {
		st.History = st.History[over:]
	}

	st.GamesPlayed++
	st.Kills += res.Stat.Kills
	st.Assists += res.Stat.Assists
	st.DamageDealt += res.Stat.DamageDealt
	st.Revives += res.Stat.Revives
	if res.Stat.Placement == 1 {
		st.Wins++
	}
	if res.Stat.Placement >= 1 && res.Stat.Placement <= 3 {
		st.Top3++
	}
	st.UpdatedAt = time.Now()
}

// Get returns a copy of the player's state, if tracked.
func (s *Store) Get(key model.PlayerKey) (RatingState, bool) {
	st, ok := s.states[key]
	if !ok {
		return RatingState{}, false
	}
	return copyState(st), true
}

// Len returns the number of players tracked this run.
func (s *Store) Len() int {
	return len(s.states)
}

// Snapshot returns copies of all states ordered by rating descending,
// ties broken by key for a stable ranking.
func (s *Store) Snapshot() []RatingState {
	out := make([]RatingState, 0, len(s.states))
	for _, st := range s.states {
		out = append(out, copyState(st))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func copyState(st *RatingState) RatingState {
	cp := *st
	cp.History = append([]float64(nil), st.History...)
	return cp
}
