// Package engine applies the rating formulas to a single game's roster.
// A Processor is stateless between calls; all cross-game memory lives
// in the standings store owned by the orchestrator.
package engine

import (
	"fmt"

	"github.com/riftline/mmr/internal/domain/formula"
	"github.com/riftline/mmr/internal/domain/model"
)

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithParams sets the formula parameters used for every game.
func WithParams(p formula.Params) Option {
	return func(proc *Processor) {
		proc.params = p
	}
}

// Processor turns one game plus pre-game ratings into per-player
// rating updates. Safe for concurrent use across non-overlapping games.
type Processor struct {
	params formula.Params
}

// New creates a Processor with default formula parameters.
func New(opts ...Option) *Processor {
	proc := &Processor{
		params: formula.DefaultParams(),
	}
	for _, opt := range opts {
		opt(proc)
	}
	return proc
}

// Params returns the formula parameters the processor runs with.
func (p *Processor) Params() formula.Params {
	return p.params
}

// ProcessGame computes a RatingUpdateResult for every player in the
// game. pregame supplies each player's rating as of just before this
// game; players missing from it are seeded at formula.InitialRating,
// never treated as an error. An empty roster yields an empty map.
//
// A roster listing the same player twice is rejected with
// ErrDuplicatePlayer; upstream data of that shape is corrupt and
// silently merging or dropping a line would skew the lobby averages.
func (p *Processor) ProcessGame(game model.Game, pregame map[model.PlayerKey]float64) (map[model.PlayerKey]model.RatingUpdateResult, error) {
	roster := game.Roster()
	results := make(map[model.PlayerKey]model.RatingUpdateResult, len(roster))
	if len(roster) == 0 {
		return results, nil
	}

	ratings := make([]float64, len(roster))
	perfs := make([]float64, len(roster))
	seen := make(map[model.PlayerKey]struct{}, len(roster))
	for i, stat := range roster {
		if _, dup := seen[stat.PlayerKey]; dup {
			return nil, fmt.Errorf("player %q listed twice in one game: %w", stat.PlayerKey, ErrDuplicatePlayer)
		}
		seen[stat.PlayerKey] = struct{}{}

		rating, ok := pregame[stat.PlayerKey]
		if !ok {
			rating = formula.InitialRating
		}
		ratings[i] = rating
		perfs[i] = p.params.PerformanceScore(stat.Placement, stat.Kills, stat.Assists, stat.DamageDealt, stat.Revives)
	}

	lobby := formula.LobbyRating(ratings)
	var perfSum float64
	for _, perf := range perfs {
		perfSum += perf
	}
	avgPerf := perfSum / float64(len(perfs))

	for i, stat := range roster {
		change := p.params.Change(ratings[i], lobby, perfs[i], avgPerf)
		results[stat.PlayerKey] = model.RatingUpdateResult{
			PlayerKey:   stat.PlayerKey,
			Stat:        stat,
			Performance: perfs[i],
			Delta:       change,
			NewRating:   formula.UpdateRating(ratings[i], change),
			LobbyRating: lobby,
		}
	}
	return results, nil
}
