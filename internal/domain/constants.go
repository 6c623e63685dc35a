package domain

// Size and physics
const (
	PlayerRadius = 20.0

	// PixelToMeter converts entity units to physics units.
	PixelToMeter = 1.0 / 20
	MeterToPixel = 20.0

	// LabelPlayer marks bodies that take part in fights.
	LabelPlayer = "player"
)

// Combat timings, in milliseconds
const (
	CooldownAfterDraw     = 2000
	CooldownAfterDecisive = 3000
	FightEffectDuration   = 3000
	EliminationGrace      = 5000
)

const (
	// HandSize is how many dice a fresh player starts with.
	HandSize = 3

	// ViewRadius bounds filtered snapshots.
	ViewRadius = 300.0

	DefaultColor uint32 = 0xffffff
)
