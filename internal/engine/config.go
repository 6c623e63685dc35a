package engine

import (
	"dice-io-server/internal/domain"
	"time"
)

// Config holds the simulation parameters.
type Config struct {
	// Seed drives every random draw of the simulation. Zero picks one from
	// the clock.
	Seed int64

	FrameSize  time.Duration
	MaxCatchUp int

	WorldWidth   float64
	WorldHeight  float64
	SpawnPadding float64
	BotCount     int

	// DashAwayForce is the separating impulse after a fight, in pixel units.
	DashAwayForce float64
	ViewRadius    float64

	// Snapshot cadences.
	FilteredEvery time.Duration
	FullEvery     time.Duration

	// CommandBuffer sizes the inbound command queue.
	CommandBuffer int
}

// NewConfig returns the defaults with a clock-derived seed.
func NewConfig() Config {
	return Config{
		Seed:          time.Now().UnixNano(),
		FrameSize:     16 * time.Millisecond,
		MaxCatchUp:    10,
		WorldWidth:    2000,
		WorldHeight:   2000,
		SpawnPadding:  30,
		BotCount:      30,
		DashAwayForce: 1,
		ViewRadius:    domain.ViewRadius,
		FilteredEvery: 50 * time.Millisecond,
		FullEvery:     time.Second,
		CommandBuffer: 256,
	}
}

// TickHz is the simulation rate rounded to whole frames per second.
func (c Config) TickHz() int {
	if c.FrameSize <= 0 {
		return 0
	}
	return int(time.Second / c.FrameSize)
}
