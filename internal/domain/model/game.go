// Package model contains domain models passed between layers.
package model

import "time"

// PlayerKey identifies a player in the game-history source's ID space.
// It is opaque to the engine; translation into the persistence layer's
// own ID space happens at the orchestrator boundary, never implicitly.
type PlayerKey string

// PlayerGameStat is one player's stat line for a single game.
// Produced by the history source and never mutated afterwards.
type PlayerGameStat struct {
	PlayerKey   PlayerKey
	DisplayName string
	Placement   int // team placement, 1 = best
	Kills       int
	Assists     int
	DamageDealt float64
	Revives     int
}

// Team groups the stat lines of one team in a game.
type Team struct {
	Placement int
	Players   []PlayerGameStat
}

// Game is one played game: its teams plus a chronological sort key.
// Games belonging to one history must be processed in non-decreasing
// SortKey order; ties keep their input order.
type Game struct {
	SortKey  int64
	PlayedAt time.Time
	Teams    []Team
}

// Roster flattens all teams into a single list of stat lines, in team
// order. The engine operates on the roster, not on team structure.
func (g Game) Roster() []PlayerGameStat {
	var n int
	for _, t := range g.Teams {
		n += len(t.Players)
	}
	roster := make([]PlayerGameStat, 0, n)
	for _, t := range g.Teams {
		roster = append(roster, t.Players...)
	}
	return roster
}

// RatingUpdateResult records the outcome of one game for one player.
// Emitted for observability and for the standings store; the engine
// itself never persists it.
type RatingUpdateResult struct {
	PlayerKey   PlayerKey
	Stat        PlayerGameStat
	Performance float64
	Delta       float64
	NewRating   float64
	LobbyRating float64
}
