package engine

import (
	"dice-io-server/internal/dice"
	"dice-io-server/internal/domain"
	"dice-io-server/internal/network"
	"dice-io-server/internal/physics"
	"dice-io-server/internal/systems"
	"dice-io-server/pkg/api"
	"math"

	"github.com/sirupsen/logrus"
)

var botNames = []string{
	"Ace", "Badger", "Bishop", "Bolt", "Brick", "Cinder", "Comet", "Crow",
	"Dingo", "Echo", "Ember", "Fable", "Falcon", "Flint", "Ghost", "Gizmo",
	"Hazard", "Jinx", "Kestrel", "Lucky", "Mako", "Maverick", "Nova", "Onyx",
	"Pebble", "Pixel", "Quill", "Raven", "Rook", "Rusty", "Sable", "Scout",
	"Sparrow", "Talon", "Tango", "Thistle", "Vesper", "Viper", "Widget", "Zephyr",
}

// addPlayer registers p and schedules its body. The player joins the
// distance cache, and onReady runs, once the body exists.
func (g *Game) addPlayer(p *domain.Player, onReady func()) {
	g.World.Register(p)
	g.Physics.ScheduleCreate(physics.BodyDef{
		Ref:    physics.BodyRef{ID: p.ID, Label: domain.LabelPlayer},
		X:      p.X * domain.PixelToMeter,
		Y:      p.Y * domain.PixelToMeter,
		Angle:  p.Angle,
		Radius: p.R * domain.PixelToMeter,
	}, func() {
		g.Distances.Insert(systems.TransformOf(p), g.transforms())
		if onReady != nil {
			onReady()
		}
	})
}

// removePlayer drops p from every index. The body goes at the start of the
// next step.
func (g *Game) removePlayer(p *domain.Player) {
	g.Distances.Remove(p.ID)
	g.Physics.ScheduleDestroy(p.ID)
	g.respawns.Remove(p.ID)
	g.World.Unregister(p.ID)
}

func (g *Game) spawnBot() *domain.Player {
	p := domain.NewPlayer(botNames[g.rng.Intn(len(botNames))], "", nil)
	g.randomizePosition(p)
	p.Dice = dice.RandomHand(g.rng, g.tierAt(p), domain.HandSize)
	g.addPlayer(p, nil)
	return p
}

func (g *Game) randomizePosition(p *domain.Player) {
	pad := g.cfg.SpawnPadding + p.R
	p.X = g.rng.Float64()*(g.World.Width-pad*2) + pad
	p.Y = g.rng.Float64()*(g.World.Height-pad*2) + pad
}

// tierAt picks the dice tier for a spawn point: richer towards the centre.
func (g *Game) tierAt(p *domain.Player) int {
	cx, cy := g.World.Center()
	return dice.TierForDistance(math.Hypot(p.X-cx, p.Y-cy))
}

// updateLifecycle removes or recycles eliminated players whose grace period
// is over, and recycles bots that left the world.
func (g *Game) updateLifecycle() {
	for _, id := range g.respawns.PopDue(g.now) {
		p := g.World.Get(id)
		if p == nil || !p.PendingRemoval(g.now) {
			continue
		}
		if p.IsHuman {
			g.eliminate(p)
		} else {
			g.respawnBot(p)
		}
	}

	for _, p := range g.World.All() {
		if p.IsHuman || !g.Physics.HasBody(p.ID) {
			continue
		}
		if !g.World.Contains(p.X, p.Y) {
			g.log.WithFields(logrus.Fields{
				"entity_id": p.ID,
				"x":         p.X,
				"y":         p.Y,
			}).Debug("Bot left the arena.")
			g.respawnBot(p)
		}
	}
}

func (g *Game) eliminate(p *domain.Player) {
	g.Hub.SendTo(p.ConnID, network.Message{
		Event:   api.EventEliminated,
		Payload: api.EliminatedMessage{EntityID: uint32(p.ID)},
	})
	g.removePlayer(p)
	g.log.WithFields(logrus.Fields{
		"entity_id": p.ID,
		"conn_id":   p.ConnID,
	}).Info("Player eliminated.")
}

// respawnBot reuses the bot: same id, same body, new place, new hand. The
// contacts of the old position end on the next step.
func (g *Game) respawnBot(p *domain.Player) {
	g.randomizePosition(p)
	p.Reset(dice.RandomHand(g.rng, g.tierAt(p), domain.HandSize))
	g.respawns.Remove(p.ID)
	g.Physics.SetPosition(p.ID, p.X*domain.PixelToMeter, p.Y*domain.PixelToMeter)
	g.Physics.SetVelocity(p.ID, 0, 0)
	g.Physics.SetAngularVelocity(p.ID, 0)
	g.stats.Respawns++
}
