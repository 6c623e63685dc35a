package engine

import (
	"context"
	"dice-io-server/internal/dice"
	"dice-io-server/internal/domain"
	"dice-io-server/internal/network"
	"dice-io-server/pkg/api"
	"math"
	"testing"
	"time"
)

type manualClock struct {
	t time.Time
}

func (c *manualClock) Now() time.Time { return c.t }

type memJournal struct {
	fights []api.FightMessage
}

func (j *memJournal) Append(msg api.FightMessage) error {
	j.fights = append(j.fights, msg)
	return nil
}

// newTestGame builds an empty arena on a manual clock.
func newTestGame(t *testing.T) (*Game, *manualClock) {
	t.Helper()
	cfg := NewConfig()
	cfg.Seed = 42
	cfg.BotCount = 0

	clk := &manualClock{t: time.UnixMilli(1_700_000_000_000)}
	g := NewGame(cfg, network.NewBroadcaster())
	g.Clock = clk.Now
	return g, clk
}

// step advances the clock by one frame and simulates it.
func step(g *Game, clk *manualClock) {
	clk.t = clk.t.Add(g.cfg.FrameSize + time.Millisecond)
	g.Update(clk.t)
}

// nextEvent drains ch until a message with the given event shows up.
func nextEvent(t *testing.T, ch chan network.Message, event string) network.Message {
	t.Helper()
	for {
		select {
		case msg := <-ch:
			if msg.Event == event {
				return msg
			}
		default:
			t.Fatalf("no %q message queued", event)
			return network.Message{}
		}
	}
}

func addBot(g *Game, x, y float64) *domain.Player {
	p := domain.NewPlayer("bot", "", dice.RandomHand(g.rng, 0, domain.HandSize))
	p.X, p.Y = x, y
	g.addPlayer(p, nil)
	return p
}

func TestGame_InitSpawnsBots(t *testing.T) {
	g, clk := newTestGame(t)
	g.cfg.BotCount = 30
	g.Init()

	if g.World.Len() != 30 {
		t.Fatalf("players = %d, want 30", g.World.Len())
	}
	if g.Physics.BodyCount() != 0 {
		t.Error("bodies must not exist before the first step")
	}

	step(g, clk)

	if g.Physics.BodyCount() != 30 {
		t.Errorf("bodies = %d, want 30", g.Physics.BodyCount())
	}
	pad := g.cfg.SpawnPadding + domain.PlayerRadius
	for _, p := range g.World.All() {
		if p.IsHuman || len(p.Dice) != domain.HandSize {
			t.Errorf("bot %v: human=%v dice=%d", p.ID, p.IsHuman, len(p.Dice))
		}
		if p.X < pad || p.X > g.World.Width-pad || p.Y < pad || p.Y > g.World.Height-pad {
			t.Errorf("bot %v spawned outside the padded area at (%.1f, %.1f)", p.ID, p.X, p.Y)
		}
	}
}

func TestGame_CommandsDrainBetweenFrames(t *testing.T) {
	g, clk := newTestGame(t)
	ch := g.Hub.Register("c1")

	if err := g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1", Name: "Alice"}); err != nil {
		t.Fatal(err)
	}
	if g.World.Len() != 0 {
		t.Fatal("commands must wait for the next frame")
	}

	step(g, clk)

	p := g.World.ByConn("c1")
	if p == nil {
		t.Fatal("player not created")
	}
	if p.Name != "Alice" || !p.IsHuman || len(p.Dice) != domain.HandSize {
		t.Errorf("unexpected player %+v", p)
	}

	msg := nextEvent(t, ch, api.EventWelcome)
	welcome, ok := msg.Payload.(api.WelcomeMessage)
	if !ok {
		t.Fatalf("payload is %T", msg.Payload)
	}
	if welcome.EntityID != uint32(p.ID) || welcome.TickHz != g.cfg.TickHz() {
		t.Errorf("welcome = %+v", welcome)
	}
	if len(welcome.State.Entities) != 1 || !welcome.State.Entities[0].IsCtrl {
		t.Errorf("welcome state should hold the viewer only: %+v", welcome.State.Entities)
	}
}

func TestGame_StartIsIdempotent(t *testing.T) {
	g, clk := newTestGame(t)
	ch := g.Hub.Register("c1")

	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)
	first := g.World.ByConn("c1")
	nextEvent(t, ch, api.EventWelcome)

	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1", Name: "Other"})
	step(g, clk)

	if g.World.Len() != 1 || g.World.ByConn("c1") != first {
		t.Error("second start must reuse the player")
	}
	nextEvent(t, ch, api.EventWelcome)
}

func TestGame_DashMovesPlayer(t *testing.T) {
	g, clk := newTestGame(t)
	g.Hub.Register("c1")

	// Unknown connection is ignored.
	g.Submit(domain.Command{Action: domain.ActionDash, ConnID: "ghost", DashX: 100})
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)

	p := g.World.ByConn("c1")
	x0 := p.X
	g.Submit(domain.Command{Action: domain.ActionDash, ConnID: "c1", DashX: 500})
	step(g, clk)
	step(g, clk)

	if p.VX <= 0 {
		t.Errorf("VX = %f, want > 0 after a dash to +x", p.VX)
	}
	if p.X <= x0 {
		t.Errorf("X did not advance: %f -> %f", x0, p.X)
	}
}

func TestGame_DisconnectRemovesPlayer(t *testing.T) {
	g, clk := newTestGame(t)
	g.Hub.Register("c1")
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)
	id := g.World.ByConn("c1").ID

	if err := g.Disconnect(context.Background(), "c1"); err != nil {
		t.Fatal(err)
	}
	step(g, clk)

	if g.World.Get(id) != nil || g.Distances.Has(id) {
		t.Error("player must leave the arena and the distance cache within the frame")
	}
	step(g, clk)
	if g.Physics.HasBody(id) {
		t.Error("body must be gone after the following step")
	}

	// A second disconnect for the same connection is a no-op.
	g.Disconnect(context.Background(), "c1")
	step(g, clk)
}

func TestGame_DisconnectBeforeBodyCancelsCreate(t *testing.T) {
	g, clk := newTestGame(t)
	p := domain.NewPlayer("late", "c9", nil)
	g.addPlayer(p, func() { t.Error("create must be cancelled") })
	g.removePlayer(p)

	step(g, clk)
	if g.Physics.HasBody(p.ID) {
		t.Error("cancelled body was created")
	}
}

func TestGame_ViewFor(t *testing.T) {
	g, clk := newTestGame(t)
	g.Hub.Register("c1")
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	near := addBot(g, 300, 100)
	far := addBot(g, 900, 900)
	step(g, clk)

	viewer := g.World.ByConn("c1")
	viewer.X, viewer.Y = 100, 100
	step(g, clk)

	pending := addBot(g, 110, 100) // no body yet

	if _, ok := g.ViewFor("nobody", true); ok {
		t.Error("unknown viewer must report false")
	}

	tests := []struct {
		name string
		full bool
		want []domain.EntityID
	}{
		{"filtered keeps viewer and near", false, []domain.EntityID{viewer.ID, near.ID}},
		{"full lists every body", true, []domain.EntityID{viewer.ID, near.ID, far.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, ok := g.ViewFor("c1", tt.full)
			if !ok {
				t.Fatal("viewer not found")
			}
			if state.Full != tt.full || state.Tick != clk.t.UnixMilli() {
				t.Errorf("full=%v tick=%d", state.Full, state.Tick)
			}
			got := map[domain.EntityID]api.PlayerState{}
			for _, e := range state.Entities {
				got[domain.EntityID(e.EntityID)] = e
			}
			if len(got) != len(tt.want) {
				t.Fatalf("entities = %d, want %d", len(got), len(tt.want))
			}
			for _, id := range tt.want {
				e, ok := got[id]
				if !ok {
					t.Errorf("missing %v", id)
				}
				if e.IsCtrl != (id == viewer.ID) {
					t.Errorf("%v: isCtrl = %v", id, e.IsCtrl)
				}
			}
			if _, ok := got[pending.ID]; ok {
				t.Error("players without a body must be excluded")
			}
		})
	}
}

func TestGame_ViewCarriesBuffMarkers(t *testing.T) {
	g, clk := newTestGame(t)
	g.Hub.Register("c1")
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)

	p := g.World.ByConn("c1")
	p.Buffs = domain.Buffs{Damage: 1, Vulnerability: 1}
	state, ok := g.ViewFor("c1", true)
	if !ok || len(state.Entities) != 1 {
		t.Fatalf("view = %+v", state)
	}
	buffs := state.Entities[0].BuffList
	if len(buffs) != 2 || buffs[0].DiceData.Name != "SWORD" || buffs[1].DiceData.Name != "VENOM" {
		t.Fatalf("buffList = %+v", buffs)
	}
	if buffs[0].DiceData.Type != int(dice.KindBuff) {
		t.Errorf("marker type = %d", buffs[0].DiceData.Type)
	}
	if len(state.Entities[0].DiceList) != domain.HandSize {
		t.Errorf("dice list = %d", len(state.Entities[0].DiceList))
	}
}

func TestGame_PublishSnapshotsOnlyToSubscribedHumans(t *testing.T) {
	g, clk := newTestGame(t)
	ch := g.Hub.Register("c1")
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c2"}) // never subscribed
	addBot(g, 500, 500)
	step(g, clk)

	if n := g.PublishSnapshots(true); n != 1 {
		t.Errorf("published %d snapshots, want 1", n)
	}
	msg := nextEvent(t, ch, api.EventState)
	if state := msg.Payload.(api.StateMessage); len(state.Entities) != 3 {
		t.Errorf("full snapshot has %d entities, want 3", len(state.Entities))
	}
}

func TestGame_ContactStartsOneFight(t *testing.T) {
	g, clk := newTestGame(t)
	journal := &memJournal{}
	g.Journal = journal
	ch := g.Hub.Register("c1")

	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)
	human := g.World.ByConn("c1")
	human.X, human.Y = 500, 500
	bot := addBot(g, 515, 500)

	step(g, clk) // bot body appears
	step(g, clk) // first overlap

	if g.Stats().Fights != 1 {
		t.Fatalf("fights = %d, want 1", g.Stats().Fights)
	}
	msg := nextEvent(t, ch, api.EventFight)
	fight := msg.Payload.(api.FightMessage)
	ids := map[uint32]bool{fight.PlayerAID: true, fight.PlayerBID: true}
	if !ids[uint32(human.ID)] || !ids[uint32(bot.ID)] {
		t.Errorf("fight between %d and %d", fight.PlayerAID, fight.PlayerBID)
	}
	if len(journal.fights) != 1 {
		t.Errorf("journal holds %d fights, want 1", len(journal.fights))
	}
	if human.NextCanShootAt <= clk.t.UnixMilli() {
		t.Error("cooldown must be set")
	}

	for i := 0; i < 5; i++ {
		step(g, clk)
	}
	if g.Stats().Fights != 1 {
		t.Errorf("a sustained or cooled-down contact must not fight again, fights = %d", g.Stats().Fights)
	}
}

func TestGame_EliminatedHumanIsRemoved(t *testing.T) {
	g, clk := newTestGame(t)
	ch := g.Hub.Register("c1")
	g.Submit(domain.Command{Action: domain.ActionStart, ConnID: "c1"})
	step(g, clk)

	p := g.World.ByConn("c1")
	p.Dice = nil
	p.DeleteAfterTick = clk.t.UnixMilli() + domain.EliminationGrace
	g.respawns.Schedule(p.ID, p.DeleteAfterTick)

	step(g, clk)
	if g.World.Get(p.ID) == nil {
		t.Fatal("player removed before the grace period ended")
	}

	clk.t = clk.t.Add(domain.EliminationGrace * time.Millisecond)
	step(g, clk)

	if g.World.Get(p.ID) != nil {
		t.Fatal("player should be removed")
	}
	msg := nextEvent(t, ch, api.EventEliminated)
	if msg.Payload.(api.EliminatedMessage).EntityID != uint32(p.ID) {
		t.Error("eliminated message names the wrong entity")
	}
}

func TestGame_EliminatedBotIsReused(t *testing.T) {
	g, clk := newTestGame(t)
	bot := addBot(g, 400, 400)
	step(g, clk)

	bot.Dice = nil
	bot.Buffs = domain.Buffs{Damage: 3}
	bot.DeleteAfterTick = clk.t.UnixMilli()
	g.respawns.Schedule(bot.ID, bot.DeleteAfterTick)
	step(g, clk)

	if g.World.Get(bot.ID) != bot {
		t.Fatal("bot must keep its identity")
	}
	if len(bot.Dice) != domain.HandSize || bot.DeleteAfterTick != 0 || bot.Buffs != (domain.Buffs{}) {
		t.Errorf("bot not reset: dice=%d deadline=%d buffs=%+v", len(bot.Dice), bot.DeleteAfterTick, bot.Buffs)
	}
	if g.Stats().Respawns != 1 {
		t.Errorf("respawns = %d, want 1", g.Stats().Respawns)
	}
}

func TestGame_BotOutsideArenaIsRepositioned(t *testing.T) {
	g, clk := newTestGame(t)
	bot := addBot(g, 400, 400)
	step(g, clk)

	bot.X = -50
	step(g, clk)

	if !g.World.Contains(bot.X, bot.Y) {
		t.Errorf("bot still outside at (%.1f, %.1f)", bot.X, bot.Y)
	}
	b := g.Physics.Body(bot.ID)
	if b == nil {
		t.Fatal("reused bot must keep its body")
	}
	if math.Abs(b.X*domain.MeterToPixel-bot.X) > 1e-9 || math.Abs(b.Y*domain.MeterToPixel-bot.Y) > 1e-9 {
		t.Errorf("body at (%.2f, %.2f) px, entity at (%.2f, %.2f)", b.X*domain.MeterToPixel, b.Y*domain.MeterToPixel, bot.X, bot.Y)
	}
}

func TestGame_InspectThroughRun(t *testing.T) {
	g, _ := newTestGame(t)
	g.Clock = time.Now
	addBot(g, 400, 400)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	qctx, qcancel := context.WithTimeout(ctx, 2*time.Second)
	defer qcancel()
	msg, err := g.Inspect(qctx, InspectStats)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Stats["players"] != 1 {
		t.Errorf("players = %d, want 1", msg.Stats["players"])
	}
	if msg.Entities != nil {
		t.Error("stats query must not list entities")
	}
}
