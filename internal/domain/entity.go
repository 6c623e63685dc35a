package domain

import "dice-io-server/internal/dice"

// Buffs accumulate across fights and are never reset while the player lives.
type Buffs struct {
	// Damage is added to this player's net damage (from rolled Books).
	Damage int `json:"damage"`
	// Vulnerability is added to damage dealt to this player (from Venom rolled by past opponents).
	Vulnerability int `json:"vulnerability"`
}

// Player is the only simulated entity kind. The physics body is looked up by
// ID; the entity never holds it.
type Player struct {
	ID      EntityID `json:"entityId"`
	ConnID  string   `json:"connId,omitempty"` // empty for bots
	Name    string   `json:"name"`
	Color   uint32   `json:"color"`
	IsHuman bool     `json:"isHuman"`

	// Kinematics. Position in pixels, velocity in pixels per second,
	// angle in radians.
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	VAngle float64 `json:"vAngle"`
	R      float64 `json:"r"`

	Dice  []*dice.Die `json:"-"`
	Buffs Buffs       `json:"buffs"`

	// NextCanShootAt gates re-entry into combat (unix ms).
	NextCanShootAt int64 `json:"nextCanShootAt"`
	// DeleteAfterTick is set when the player lost its last die. Zero means unset.
	DeleteAfterTick int64 `json:"deleteAfterTick,omitempty"`
}

// NewPlayer creates a player with a fresh id. connID is empty for bots.
func NewPlayer(name, connID string, hand []*dice.Die) *Player {
	return &Player{
		ID:      NextEntityID(),
		ConnID:  connID,
		Name:    name,
		Color:   DefaultColor,
		IsHuman: connID != "",
		R:       PlayerRadius,
		Dice:    hand,
	}
}

// CanFight reports whether the post-combat cooldown has elapsed. A player
// waiting out its elimination grace period never fights.
func (p *Player) CanFight(now int64) bool {
	return !p.Eliminated() && now >= p.NextCanShootAt
}

// Eliminated reports whether the player lost its last die and is waiting
// for removal or respawn.
func (p *Player) Eliminated() bool {
	return p.DeleteAfterTick != 0
}

// PendingRemoval reports whether the elimination grace period is over.
func (p *Player) PendingRemoval(now int64) bool {
	return p.DeleteAfterTick != 0 && now >= p.DeleteAfterTick
}

// Reset re-equips a reused bot. Identity is kept.
func (p *Player) Reset(hand []*dice.Die) {
	p.Dice = hand
	p.Buffs = Buffs{}
	p.NextCanShootAt = 0
	p.DeleteAfterTick = 0
	p.VX, p.VY, p.VAngle = 0, 0, 0
}
