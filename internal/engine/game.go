package engine

import (
	"context"
	"dice-io-server/internal/dice"
	"dice-io-server/internal/domain"
	"dice-io-server/internal/network"
	"dice-io-server/internal/physics"
	"dice-io-server/internal/systems"
	"dice-io-server/pkg/api"
	"dice-io-server/pkg/logger"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCommandQueueFull is returned when the loop is not draining commands.
var ErrCommandQueueFull = errors.New("command queue full")

// FightJournal receives every resolved fight.
type FightJournal interface {
	Append(msg api.FightMessage) error
}

// Stats are loop counters exposed to debug endpoints.
type Stats struct {
	Frames       uint64
	Fights       int
	Eliminations int
	Respawns     int
}

type commandHandler func(g *Game, cmd domain.Command)

// Game owns the whole simulation. Every field is touched only by the
// goroutine running Run; other goroutines talk to it through Submit and
// Inspect.
type Game struct {
	cfg Config

	World     *domain.World
	Physics   *physics.World
	Distances *systems.DistanceCache
	Combat    *systems.CombatResolver
	Hub       *network.Broadcaster
	Journal   FightJournal

	// Clock is the wall clock used for cooldowns and snapshot ticks.
	Clock func() time.Time

	rng      *rand.Rand
	loop     *Loop
	commands chan domain.Command
	queries  chan inspectRequest
	respawns *RespawnQueue
	handlers map[domain.ActionType]commandHandler

	// now is the unix ms of the frame being simulated.
	now   int64
	stats Stats
	log   *logrus.Entry
}

func NewGame(cfg Config, hub *network.Broadcaster) *Game {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	g := &Game{
		cfg:       cfg,
		World:     domain.NewWorld(cfg.WorldWidth, cfg.WorldHeight),
		Distances: systems.NewDistanceCache(),
		Hub:       hub,
		Clock:     time.Now,
		rng:       rng,
		commands:  make(chan domain.Command, cfg.CommandBuffer),
		queries:   make(chan inspectRequest),
		respawns:  NewRespawnQueue(),
		handlers:  make(map[domain.ActionType]commandHandler),
		log:       logger.Component("game"),
	}
	g.Physics = physics.NewWorld(physics.DefaultOptions(cfg.WorldWidth, cfg.WorldHeight), g)
	g.Combat = systems.NewCombatResolver(rng, g.Physics)
	g.Combat.DashAwayForce = cfg.DashAwayForce
	g.loop = NewLoop(cfg.FrameSize, cfg.MaxCatchUp, g.fixedUpdate)

	g.registerHandlers()
	return g
}

func (g *Game) registerHandlers() {
	g.handlers[domain.ActionStart] = (*Game).handleStart
	g.handlers[domain.ActionDash] = (*Game).handleDash
	g.handlers[domain.ActionDisconnect] = (*Game).handleDisconnect
	g.handlers[domain.ActionDebugInspect] = (*Game).handleDebugInspect
}

func (g *Game) Config() Config {
	return g.cfg
}

// Init fills the arena with bots.
func (g *Game) Init() {
	for i := 0; i < g.cfg.BotCount; i++ {
		g.spawnBot()
	}
	g.log.WithFields(logrus.Fields{
		"bots": g.cfg.BotCount,
		"seed": g.cfg.Seed,
	}).Info("Arena initialised.")
}

// Run drives the simulation until ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	frames := time.NewTicker(g.cfg.FrameSize)
	filtered := time.NewTicker(g.cfg.FilteredEvery)
	full := time.NewTicker(g.cfg.FullEvery)
	defer frames.Stop()
	defer filtered.Stop()
	defer full.Stop()

	g.log.WithField("tick_hz", g.cfg.TickHz()).Info("Game loop started.")
	for {
		select {
		case <-ctx.Done():
			g.log.WithField("frames", g.stats.Frames).Info("Game loop stopped.")
			return nil
		case <-frames.C:
			g.Update(g.Clock())
		case <-filtered.C:
			g.PublishSnapshots(false)
		case <-full.C:
			g.PublishSnapshots(true)
		case req := <-g.queries:
			req.reply <- g.inspect(req.cmd)
		}
	}
}

// Update runs the frames owed up to now. Exposed for tests and tools that
// drive the clock themselves.
func (g *Game) Update(now time.Time) int {
	return g.loop.Update(now)
}

// Submit queues a command for the next frame without blocking.
func (g *Game) Submit(cmd domain.Command) error {
	select {
	case g.commands <- cmd:
		return nil
	default:
		g.log.WithFields(logrus.Fields{
			"conn_id": cmd.ConnID,
			"action":  cmd.Action.String(),
		}).Warn("Command queue full, dropping command.")
		return ErrCommandQueueFull
	}
}

// Disconnect queues the removal of a connection's player. Unlike Submit it
// waits for room, since a lost disconnect would leak the player.
func (g *Game) Disconnect(ctx context.Context, connID string) error {
	select {
	case g.commands <- domain.Command{Action: domain.ActionDisconnect, ConnID: connID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Game) fixedUpdate(frame time.Duration) {
	g.now = g.Clock().UnixMilli()

	g.drainCommands()
	g.Physics.Step(frame.Seconds(), g)
	g.Distances.RebuildAll(g.transforms())
	g.updateLifecycle()

	g.stats.Frames++
}

// drainCommands handles what was queued before this frame started.
func (g *Game) drainCommands() {
	n := len(g.commands)
	for i := 0; i < n; i++ {
		cmd := <-g.commands
		h, ok := g.handlers[cmd.Action]
		if !ok {
			g.log.WithField("action", cmd.Action.String()).Warn("Unknown action")
			continue
		}
		h(g, cmd)
	}
}

func (g *Game) handleStart(cmd domain.Command) {
	if p := g.World.ByConn(cmd.ConnID); p != nil {
		if g.Physics.HasBody(p.ID) {
			g.sendWelcome(p)
		}
		return
	}

	name := cmd.Name
	if name == "" {
		name = botNames[g.rng.Intn(len(botNames))]
	}
	p := domain.NewPlayer(name, cmd.ConnID, dice.RandomHand(g.rng, 0, domain.HandSize))
	g.randomizePosition(p)
	g.addPlayer(p, func() { g.sendWelcome(p) })

	g.log.WithFields(logrus.Fields{
		"entity_id": p.ID,
		"conn_id":   p.ConnID,
		"name":      p.Name,
	}).Info("Player joined.")
}

const angularFlick = 0.7

// handleDash pushes the player. The impulse lands at a jittered point so a
// dash also spins the player.
func (g *Game) handleDash(cmd domain.Command) {
	p := g.World.ByConn(cmd.ConnID)
	if p == nil {
		g.log.WithField("conn_id", cmd.ConnID).Warn("Dash from unknown connection.")
		return
	}
	if !g.Physics.HasBody(p.ID) {
		return
	}
	r := p.R * domain.PixelToMeter
	ox := (g.rng.Float64()*2*r - r) * angularFlick
	oy := (g.rng.Float64()*2*r - r) * angularFlick
	g.Physics.ApplyImpulseAt(p.ID, cmd.DashX*domain.PixelToMeter, cmd.DashY*domain.PixelToMeter, ox, oy)
}

func (g *Game) handleDisconnect(cmd domain.Command) {
	p := g.World.ByConn(cmd.ConnID)
	if p == nil {
		g.log.WithField("conn_id", cmd.ConnID).Warn("Disconnect for unknown connection.")
		return
	}
	g.removePlayer(p)
	g.log.WithFields(logrus.Fields{
		"entity_id": p.ID,
		"conn_id":   cmd.ConnID,
	}).Info("Player left.")
}

func (g *Game) handleDebugInspect(cmd domain.Command) {
	g.Hub.SendTo(cmd.ConnID, network.Message{Event: api.EventDebug, Payload: g.inspect(cmd.Query)})
}

func (g *Game) sendWelcome(p *domain.Player) {
	state, ok := g.ViewFor(p.ConnID, true)
	if !ok {
		return
	}
	g.Hub.SendTo(p.ConnID, network.Message{
		Event: api.EventWelcome,
		Payload: api.WelcomeMessage{
			EntityID: uint32(p.ID),
			TickHz:   g.cfg.TickHz(),
			State:    state,
		},
	})
}

// --- physics.ContactListener ---

func (g *Game) BeginContact(a, b physics.BodyRef) {
	if a.Label != domain.LabelPlayer || b.Label != domain.LabelPlayer {
		return
	}
	pa, pb := g.World.Get(a.ID), g.World.Get(b.ID)
	if pa == nil || pb == nil {
		return
	}
	// Positions in the fight record are the ones at contact, not last frame's.
	g.syncPose(pa)
	g.syncPose(pb)

	res, ok := g.Combat.Fight(pa, pb, g.now)
	if !ok {
		return
	}
	g.stats.Fights++
	if res.Eliminated != 0 {
		g.stats.Eliminations++
		if loser := g.World.Get(res.Eliminated); loser != nil {
			g.respawns.Schedule(loser.ID, loser.DeleteAfterTick)
		}
	}

	msg := fightMessage(res)
	g.Hub.Broadcast(network.Message{Event: api.EventFight, Payload: msg})
	if g.Journal != nil {
		if err := g.Journal.Append(msg); err != nil {
			g.log.WithError(err).Warn("Failed to journal fight")
		}
	}
}

func (g *Game) EndContact(a, b physics.BodyRef) {}

// --- physics.Syncer ---

// ReadInto copies the entity pose into its body. Velocity is owned by the body.
func (g *Game) ReadInto(b *physics.Body) {
	p := g.World.Get(b.Ref.ID)
	if p == nil {
		return
	}
	b.X = p.X * domain.PixelToMeter
	b.Y = p.Y * domain.PixelToMeter
	b.Angle = p.Angle
}

func (g *Game) WriteFrom(b *physics.Body) {
	p := g.World.Get(b.Ref.ID)
	if p == nil {
		return
	}
	p.X = b.X * domain.MeterToPixel
	p.Y = b.Y * domain.MeterToPixel
	p.Angle = b.Angle
	p.VX = b.VX * domain.MeterToPixel
	p.VY = b.VY * domain.MeterToPixel
	p.VAngle = b.Omega
}

func (g *Game) syncPose(p *domain.Player) {
	if b := g.Physics.Body(p.ID); b != nil {
		g.WriteFrom(b)
	}
}

// transforms lists the players that have a body, in id order.
func (g *Game) transforms() []systems.Transform {
	all := g.World.All()
	out := make([]systems.Transform, 0, len(all))
	for _, p := range all {
		if g.Physics.HasBody(p.ID) {
			out = append(out, systems.TransformOf(p))
		}
	}
	return out
}

// Stats returns the loop counters. Loop goroutine only; other goroutines
// use Inspect.
func (g *Game) Stats() Stats {
	return g.stats
}
