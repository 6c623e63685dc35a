package systems

import (
	"dice-io-server/internal/dice"
	"dice-io-server/internal/domain"
	"dice-io-server/pkg/logger"
	"math"

	"github.com/sirupsen/logrus"
)

// Outcome is the winner tag of a fight.
type Outcome string

const (
	OutcomeA    Outcome = "A"
	OutcomeB    Outcome = "B"
	OutcomeDraw Outcome = "DRAW"
)

// Kinematics is the part of the physics world the resolver touches.
// Velocities and impulses are in physics units.
type Kinematics interface {
	SetVelocity(id domain.EntityID, vx, vy float64)
	SetAngularVelocity(id domain.EntityID, omega float64)
	ApplyImpulse(id domain.EntityID, ix, iy float64)
}

// Point is a position or displacement in pixels.
type Point struct {
	X float64
	Y float64
}

// FightResult is the immutable record of one resolved fight.
type FightResult struct {
	UntilTick        int64
	Outcome          Outcome
	PlayerAPos       Point
	DisplacementAB   Point
	PlayerAID        domain.EntityID
	PlayerBID        domain.EntityID
	RollsA           []dice.Roll
	RollsB           []dice.Roll
	NetDamageA       int
	NetDamageB       int
	TransferredIndex int

	// Eliminated is the loser's id when it was left without dice, zero otherwise.
	Eliminated domain.EntityID
}

// CombatResolver turns a fresh contact between two players into a fight.
type CombatResolver struct {
	Rng  dice.Rand
	Body Kinematics

	// DashAwayForce is the separating impulse, in pixel units.
	DashAwayForce float64
}

func NewCombatResolver(rng dice.Rand, body Kinematics) *CombatResolver {
	return &CombatResolver{Rng: rng, Body: body, DashAwayForce: 1}
}

// NetDamage is max(0, swords + own damage buff + opponent's vulnerability - opponent's shields).
func NetDamage(own, opp dice.SuitCount, ownBuffs, oppBuffs domain.Buffs) int {
	dmg := own.Count(dice.Sword) + ownBuffs.Damage + oppBuffs.Vulnerability - opp.Count(dice.Shield)
	if dmg < 0 {
		return 0
	}
	return dmg
}

// Decide picks the winner: more damage, then more Morale, else a draw.
func Decide(dmgA, dmgB int, countA, countB dice.SuitCount) Outcome {
	switch {
	case dmgA > dmgB:
		return OutcomeA
	case dmgB > dmgA:
		return OutcomeB
	case countA.Count(dice.Morale) > countB.Count(dice.Morale):
		return OutcomeA
	case countB.Count(dice.Morale) > countA.Count(dice.Morale):
		return OutcomeB
	default:
		return OutcomeDraw
	}
}

// Fight resolves one exchange at time now (unix ms). It returns false, and
// changes nothing, when either side is still in its post-fight cooldown.
func (r *CombatResolver) Fight(a, b *domain.Player, now int64) (FightResult, bool) {
	combatLogger := logger.Component("combat_system").WithFields(logrus.Fields{
		"player_a": a.ID,
		"player_b": b.ID,
	})

	if !a.CanFight(now) || !b.CanFight(now) {
		combatLogger.Debug("Fight skipped: cooldown.")
		return FightResult{}, false
	}

	rollsA := dice.RollAll(r.Rng, a.Dice)
	rollsB := dice.RollAll(r.Rng, b.Dice)
	countA := dice.AggregateSuits(rollsA)
	countB := dice.AggregateSuits(rollsB)

	// Buffs from earlier fights only; this fight's accrual happens below.
	dmgA := NetDamage(countA, countB, a.Buffs, b.Buffs)
	dmgB := NetDamage(countB, countA, b.Buffs, a.Buffs)
	outcome := Decide(dmgA, dmgB, countA, countB)

	a.Buffs.Damage += countA.Count(dice.Book)
	b.Buffs.Damage += countB.Count(dice.Book)
	b.Buffs.Vulnerability += countA.Count(dice.Venom)
	a.Buffs.Vulnerability += countB.Count(dice.Venom)

	res := FightResult{
		UntilTick:        now + domain.FightEffectDuration,
		Outcome:          outcome,
		PlayerAPos:       Point{X: a.X, Y: a.Y},
		DisplacementAB:   Point{X: b.X - a.X, Y: b.Y - a.Y},
		PlayerAID:        a.ID,
		PlayerBID:        b.ID,
		RollsA:           rollsA,
		RollsB:           rollsB,
		NetDamageA:       dmgA,
		NetDamageB:       dmgB,
		TransferredIndex: -1,
	}

	cooldown := int64(domain.CooldownAfterDraw)
	if outcome != OutcomeDraw {
		cooldown = domain.CooldownAfterDecisive
		winner, loser := a, b
		if outcome == OutcomeB {
			winner, loser = b, a
		}
		res.TransferredIndex = r.transferRandomDie(loser, winner)
		// Only the transfer that empties the hand starts the grace period.
		if res.TransferredIndex >= 0 && len(loser.Dice) == 0 && !loser.Eliminated() {
			loser.DeleteAfterTick = now + domain.EliminationGrace
			res.Eliminated = loser.ID
		}
	}

	r.separate(a, b)
	a.NextCanShootAt = now + cooldown
	b.NextCanShootAt = now + cooldown

	combatLogger.WithFields(logrus.Fields{
		"result":       outcome,
		"damage_a":     dmgA,
		"damage_b":     dmgB,
		"suits_a":      countA.Map(),
		"suits_b":      countB.Map(),
		"transferred":  res.TransferredIndex,
		"eliminated":   res.Eliminated != 0,
		"dice_count_a": len(a.Dice),
		"dice_count_b": len(b.Dice),
	}).Info("Fight resolved.")

	return res, true
}

// transferRandomDie moves one uniformly chosen die from loser to winner and
// returns its index in the loser's hand before the move, or -1.
func (r *CombatResolver) transferRandomDie(from, to *domain.Player) int {
	if len(from.Dice) == 0 {
		return -1
	}
	i := r.Rng.Intn(len(from.Dice))
	d := from.Dice[i]
	from.Dice = append(from.Dice[:i:i], from.Dice[i+1:]...)
	to.Dice = append(to.Dice, d)
	return i
}

// separate stops both players and nudges them apart so the contact that
// started the fight ends instead of re-triggering.
func (r *CombatResolver) separate(a, b *domain.Player) {
	a.VX, a.VY, a.VAngle = 0, 0, 0
	b.VX, b.VY, b.VAngle = 0, 0, 0
	if r.Body == nil {
		return
	}
	for _, p := range []*domain.Player{a, b} {
		r.Body.SetVelocity(p.ID, 0, 0)
		r.Body.SetAngularVelocity(p.ID, 0)
	}
	ix, iy := awayVector(a, b, r.DashAwayForce*domain.PixelToMeter)
	r.Body.ApplyImpulse(a.ID, ix, iy)
	r.Body.ApplyImpulse(b.ID, -ix, -iy)
}

// awayVector points from other to p with the given length. Coincident
// players are pushed apart along the x axis.
func awayVector(p, other *domain.Player, length float64) (float64, float64) {
	dx, dy := p.X-other.X, p.Y-other.Y
	n := math.Hypot(dx, dy)
	if n == 0 {
		return -length, 0
	}
	return dx / n * length, dy / n * length
}
