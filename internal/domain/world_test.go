package domain

import "testing"

func TestWorld_RegisterUnregister(t *testing.T) {
	world := NewWorld(100, 100)

	human := NewPlayer("alice", "conn-1", nil)
	bot := NewPlayer("bot", "", nil)

	world.Register(human)
	world.Register(bot)

	if world.Len() != 2 {
		t.Fatalf("expected 2 players, got %d", world.Len())
	}
	if got := world.Get(human.ID); got != human {
		t.Errorf("Get returned wrong player: got %v want %v", got, human)
	}
	if got := world.ByConn("conn-1"); got != human {
		t.Errorf("ByConn returned wrong player: got %v want %v", got, human)
	}
	if world.ByConn("") != nil {
		t.Error("bots must not be reachable by connection id")
	}

	world.Unregister(human.ID)

	if world.Get(human.ID) != nil {
		t.Error("player should be nil after removal")
	}
	if world.ByConn("conn-1") != nil {
		t.Error("connection mapping should be dropped with the player")
	}

	// Unknown ids are ignored.
	world.Unregister(EntityID(999999))
	if world.Len() != 1 {
		t.Errorf("expected 1 player left, got %d", world.Len())
	}
}

func TestWorld_AllIsOrdered(t *testing.T) {
	world := NewWorld(100, 100)
	var ids []EntityID
	for i := 0; i < 10; i++ {
		p := NewPlayer("p", "", nil)
		ids = append(ids, p.ID)
		world.Register(p)
	}

	all := world.All()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID >= all[i].ID {
			t.Fatalf("All() not ordered at %d: %v >= %v", i, all[i-1].ID, all[i].ID)
		}
	}
}

func TestWorld_Contains(t *testing.T) {
	world := NewWorld(2000, 2000)
	tests := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{2000, 2000, true},
		{1000, 1000, true},
		{-1, 10, false},
		{10, 2001, false},
	}
	for _, tt := range tests {
		if got := world.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPlayer_Timers(t *testing.T) {
	p := NewPlayer("p", "", nil)
	p.NextCanShootAt = 1000

	if p.CanFight(999) {
		t.Error("should be in cooldown before NextCanShootAt")
	}
	if !p.CanFight(1000) {
		t.Error("should be able to fight at NextCanShootAt")
	}

	if p.PendingRemoval(1_000_000) {
		t.Error("unset DeleteAfterTick must never be due")
	}
	p.DeleteAfterTick = 5000
	if p.PendingRemoval(4999) || !p.PendingRemoval(5000) {
		t.Error("PendingRemoval boundary is wrong")
	}
	if !p.Eliminated() || p.CanFight(1_000_000) {
		t.Error("a player in its grace period must not fight")
	}

	p.Buffs = Buffs{Damage: 2, Vulnerability: 1}
	p.Reset(nil)
	if p.Buffs != (Buffs{}) || p.DeleteAfterTick != 0 || p.NextCanShootAt != 0 {
		t.Errorf("Reset left state behind: %+v", p)
	}
}

func TestNextEntityID_Monotonic(t *testing.T) {
	a := NextEntityID()
	b := NextEntityID()
	if a == 0 || b <= a {
		t.Errorf("ids not monotonic: %v then %v", a, b)
	}
}
