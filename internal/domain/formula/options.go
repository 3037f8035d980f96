package formula

// Option applies a configuration option to Params.
type Option func(*Params)

// WithWeights sets the four performance score weights.
func WithWeights(placement, combat, damage, support float64) Option {
	return func(p *Params) {
		if placement >= 0 {
			p.PlacementWeight = placement
		}
		if combat >= 0 {
			p.CombatWeight = combat
		}
		if damage >= 0 {
			p.DamageWeight = damage
		}
		if support >= 0 {
			p.SupportWeight = support
		}
	}
}

// WithKFactor sets the base K-factor.
func WithKFactor(k float64) Option {
	return func(p *Params) {
		if k > 0 {
			p.KFactor = k
		}
	}
}

// WithMaxChange sets the per-game delta clamp.
func WithMaxChange(maxChange float64) Option {
	return func(p *Params) {
		if maxChange > 0 {
			p.MaxChange = maxChange
		}
	}
}

// WithCatchup sets the amplification scale and cap of the asymmetric
// multiplier.
func WithCatchup(scale, cap float64) Option {
	return func(p *Params) {
		if scale > 0 && cap > 0 {
			p.CatchupScale = scale
			p.CatchupCap = cap
		}
	}
}

// WithDampening sets the damping scale and cap of the asymmetric
// multiplier. The cap must stay below 1 or losses could flip sign.
func WithDampening(scale, cap float64) Option {
	return func(p *Params) {
		if scale > 0 && cap > 0 && cap < 1 {
			p.DampenScale = scale
			p.DampenCap = cap
		}
	}
}
