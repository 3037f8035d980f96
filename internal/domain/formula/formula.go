// Package formula implements the pure rating math: placement points,
// performance scores, lobby ratings and the asymmetric MMR delta.
// Everything here is stateless and safe for concurrent use.
package formula

import "math"

// Fixed engine constants. These are part of the rating contract and are
// not tunable; the weights and caps that are live in Params.
const (
	// InitialRating seeds every player never seen before.
	InitialRating = 1500.0

	// fallbackPerfDivisor normalizes the performance diff when the
	// lobby's average performance score is zero.
	fallbackPerfDivisor = 1000.0

	// minLobbyRating bounds the divisor of the rating-gap percentage.
	minLobbyRating = 1.0
)

// placementTable maps team placements 1..10 to points. The table is
// fixed; placements outside it score zero.
var placementTable = [...]float64{16, 12, 10, 8, 6, 4, 4, 2, 2, 1}

// Params holds the tunable weights of the rating formula. The zero
// value is not useful; construct with New or DefaultParams.
type Params struct {
	// Performance score weights.
	PlacementWeight float64
	CombatWeight    float64
	DamageWeight    float64
	SupportWeight   float64

	// KFactor scales the normalized performance diff into a base delta.
	KFactor float64

	// MaxChange clamps the per-game delta to [-MaxChange, +MaxChange].
	MaxChange float64

	// Catch-up amplification: applied to gains below the lobby average
	// and to losses above it.
	CatchupScale float64
	CatchupCap   float64

	// Loss dampening: applied to losses below the lobby average and to
	// gains above it.
	DampenScale float64
	DampenCap   float64
}

// DefaultParams returns the hand-tuned production weights.
func DefaultParams() Params {
	return Params{
		PlacementWeight: 0.55,
		CombatWeight:    0.30,
		DamageWeight:    0.10,
		SupportWeight:   0.50,
		KFactor:         12.0,
		MaxChange:       20.0,
		CatchupScale:    1.5,
		CatchupCap:      0.4,
		DampenScale:     1.2,
		DampenCap:       0.25,
	}
}

// New builds Params from the defaults plus options.
func New(opts ...Option) Params {
	p := DefaultParams()
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// PlacementPoints returns the point value for a team placement.
// Placements outside 1..10 score zero.
func PlacementPoints(placement int) float64 {
	if placement < 1 || placement > len(placementTable) {
		return 0
	}
	return placementTable[placement-1]
}

// PerformanceScore combines placement, combat, damage and support stats
// into a single per-game score.
func (p Params) PerformanceScore(placement, kills, assists int, damageDealt float64, revives int) float64 {
	return PlacementPoints(placement)*p.PlacementWeight +
		float64(kills+assists)*p.CombatWeight +
		(damageDealt/100)*p.DamageWeight +
		float64(revives)*p.SupportWeight
}

// LobbyRating is the arithmetic mean of the pre-game ratings of all
// participants. An empty lobby rates at InitialRating.
func LobbyRating(ratings []float64) float64 {
	if len(ratings) == 0 {
		return InitialRating
	}
	var sum float64
	for _, r := range ratings {
		sum += r
	}
	return sum / float64(len(ratings))
}

// Change computes the MMR delta for one player in one game.
//
// The delta starts from the player's performance relative to the lobby
// average and is then skewed by where the player's rating sits relative
// to the lobby rating: below-average players have gains amplified and
// losses dampened (catch-up), above-average players the inverse (bleed).
// The result is clamped to ±MaxChange and rounded to two decimals.
func (p Params) Change(playerRating, lobbyRating, perfScore, avgPerfScore float64) float64 {
	diff := perfScore - avgPerfScore
	var normalized float64
	if avgPerfScore > 0 {
		normalized = diff / avgPerfScore
	} else {
		normalized = diff / fallbackPerfDivisor
	}
	base := normalized * p.KFactor

	mmrDiff := playerRating - lobbyRating
	gapPercent := math.Abs(mmrDiff) / math.Max(lobbyRating, minLobbyRating)

	amplify := 1.0 + math.Min(gapPercent*p.CatchupScale, p.CatchupCap)
	dampen := 1.0 - math.Min(gapPercent*p.DampenScale, p.DampenCap)

	multiplier := 1.0
	switch {
	case mmrDiff < 0 && base > 0:
		multiplier = amplify
	case mmrDiff < 0 && base < 0:
		multiplier = dampen
	case mmrDiff > 0 && base > 0:
		multiplier = dampen
	case mmrDiff > 0 && base < 0:
		multiplier = amplify
	}

	change := base * multiplier
	if change > p.MaxChange {
		change = p.MaxChange
	}
	if change < -p.MaxChange {
		change = -p.MaxChange
	}
	return roundCenti(change)
}

// UpdateRating applies a delta to a rating, flooring at zero.
func UpdateRating(current, change float64) float64 {
	return math.Max(0, current+change)
}

// roundCenti rounds to two decimal places, half-up on the scaled value.
func roundCenti(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
