package physics

import (
	"dice-io-server/internal/domain"
	"dice-io-server/pkg/logger"
	"math"
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type pose struct{ x, y, angle, vx, vy float64 }

// mapSync stands in for the game: entity poses keyed by id, in metres.
type mapSync struct {
	poses map[domain.EntityID]*pose
	reads []domain.EntityID
}

func newMapSync() *mapSync {
	return &mapSync{poses: make(map[domain.EntityID]*pose)}
}

func (s *mapSync) ReadInto(b *Body) {
	s.reads = append(s.reads, b.Ref.ID)
	if p, ok := s.poses[b.Ref.ID]; ok {
		b.X, b.Y, b.Angle = p.x, p.y, p.angle
	}
}

func (s *mapSync) WriteFrom(b *Body) {
	p, ok := s.poses[b.Ref.ID]
	if !ok {
		p = &pose{}
		s.poses[b.Ref.ID] = p
	}
	p.x, p.y, p.angle, p.vx, p.vy = b.X, b.Y, b.Angle, b.VX, b.VY
}

type recorder struct {
	begins  []pair
	ends    []pair
	onBegin func(a, b BodyRef)
}

func (r *recorder) BeginContact(a, b BodyRef) {
	r.begins = append(r.begins, makePair(a.ID, b.ID))
	if r.onBegin != nil {
		r.onBegin(a, b)
	}
}

func (r *recorder) EndContact(a, b BodyRef) {
	r.ends = append(r.ends, makePair(a.ID, b.ID))
}

const dt = 0.016

func newTestWorld(l ContactListener) *World {
	return NewWorld(DefaultOptions(2000, 2000), l)
}

func circle(id domain.EntityID, x, y float64) BodyDef {
	return BodyDef{Ref: BodyRef{ID: id, Label: domain.LabelPlayer}, X: x, Y: y, Radius: 1}
}

func TestWorld_CreationIsDeferred(t *testing.T) {
	w := newTestWorld(nil)
	sync := newMapSync()

	created := false
	w.ScheduleCreate(circle(1, 10, 10), func() { created = true })

	if w.HasBody(1) || created {
		t.Fatal("body must not exist before the next step")
	}

	w.Step(dt, sync)

	if !w.HasBody(1) || !created {
		t.Fatal("body should exist after the step and callback should have run")
	}
	if len(sync.reads) != 0 {
		t.Errorf("a body created in this step must not be read before the solver pass, reads=%v", sync.reads)
	}
	if p := sync.poses[1]; p == nil || p.x != 10 || p.y != 10 {
		t.Errorf("created body should be written back at its spawn point, got %+v", p)
	}
}

func TestWorld_DestroyCancelsPendingCreate(t *testing.T) {
	w := newTestWorld(nil)
	w.ScheduleCreate(circle(1, 10, 10), nil)
	w.ScheduleDestroy(1)
	w.Step(dt, newMapSync())

	if w.HasBody(1) {
		t.Error("destroy scheduled after create must win")
	}
	if c, d := w.Pending(); c != 0 || d != 0 {
		t.Errorf("queues should be empty, got creates=%d destroys=%d", c, d)
	}
}

func TestWorld_BeginContactFiresOncePerOverlap(t *testing.T) {
	rec := &recorder{}
	w := newTestWorld(rec)
	sync := newMapSync()

	w.ScheduleCreate(circle(1, 10, 10), nil)
	w.ScheduleCreate(circle(2, 11, 10), nil)
	w.Step(dt, sync) // bodies appear

	for i := 0; i < 5; i++ {
		w.Step(dt, sync)
	}
	if len(rec.begins) != 1 {
		t.Fatalf("sustained overlap must fire BeginContact once, got %d", len(rec.begins))
	}
	if rec.begins[0] != (pair{1, 2}) {
		t.Errorf("unexpected pair %+v", rec.begins[0])
	}

	// Move them apart through the entity side.
	sync.poses[2].x = 50
	w.Step(dt, sync)
	if len(rec.ends) != 1 {
		t.Fatalf("expected one EndContact, got %d", len(rec.ends))
	}

	// And back together.
	sync.poses[2].x = 10.5
	w.Step(dt, sync)
	if len(rec.begins) != 2 {
		t.Errorf("re-entering overlap should fire a new BeginContact, got %d", len(rec.begins))
	}
}

func TestWorld_DestroyInsideCallbackIsDeferred(t *testing.T) {
	rec := &recorder{}
	w := newTestWorld(rec)
	rec.onBegin = func(a, b BodyRef) {
		w.ScheduleDestroy(b.ID)
		if !w.HasBody(b.ID) {
			t.Error("body vanished during the step")
		}
	}
	sync := newMapSync()

	w.ScheduleCreate(circle(1, 10, 10), nil)
	w.ScheduleCreate(circle(2, 10.5, 10), nil)
	w.Step(dt, sync)
	w.Step(dt, sync) // contact fires, destroy queued

	if !w.HasBody(2) {
		t.Fatal("destroy must wait for the next step")
	}
	w.Step(dt, sync)
	if w.HasBody(2) {
		t.Error("body 2 should be gone after the following step")
	}
	if len(rec.ends) != 1 {
		t.Errorf("destroying a touching body should end the contact, got %d ends", len(rec.ends))
	}
}

func TestWorld_SensorsDoNotBlock(t *testing.T) {
	w := newTestWorld(&recorder{})
	sync := newMapSync()
	w.ScheduleCreate(circle(1, 10, 10), nil)
	w.ScheduleCreate(circle(2, 12, 10), nil)
	w.Step(dt, sync)

	w.SetVelocity(1, 100, 0)
	w.Step(dt, sync)

	if got := sync.poses[1].x; got <= 10+100*dt*0.99 {
		t.Errorf("body 1 should pass through body 2 unhindered, x=%v", got)
	}
}

func TestBody_Damping(t *testing.T) {
	b := newBody(circle(1, 0, 0))
	b.VX = 10
	b.Omega = 10
	b.integrate(dt, DefaultLinearDamping, DefaultAngularDamping)

	wantV := 10 / (1 + dt*DefaultLinearDamping)
	if math.Abs(b.VX-wantV) > 1e-12 {
		t.Errorf("VX = %v, want %v", b.VX, wantV)
	}
	if b.VX >= 10 || b.Omega >= 10 {
		t.Error("damping must slow the body down")
	}
	if math.Abs(b.X-wantV*dt) > 1e-12 {
		t.Errorf("X = %v, want %v", b.X, wantV*dt)
	}
}

func TestBody_OffCentreImpulseSpins(t *testing.T) {
	tests := []struct {
		name     string
		ox, oy   float64
		wantSpin bool
	}{
		{"centre", 0, 0, false},
		{"offset", 0, 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBody(circle(1, 0, 0))
			b.applyImpulse(1, 0, tt.ox, tt.oy)

			if want := 1 / b.Mass; math.Abs(b.VX-want) > 1e-12 {
				t.Errorf("VX = %v, want %v", b.VX, want)
			}
			if spin := b.Omega != 0; spin != tt.wantSpin {
				t.Errorf("Omega = %v, wantSpin=%v", b.Omega, tt.wantSpin)
			}
		})
	}
}

func TestWorld_SetPositionKeepsVelocity(t *testing.T) {
	w := newTestWorld(nil)
	w.ScheduleCreate(circle(1, 10, 10), nil)
	w.Step(dt, newMapSync())

	w.SetVelocity(1, 2, 0)
	w.SetPosition(1, 40, 30)
	b := w.Body(1)
	if b.X != 40 || b.Y != 30 {
		t.Errorf("body at (%v, %v), want (40, 30)", b.X, b.Y)
	}
	if vx, _, _ := w.Velocity(1); vx != 2 {
		t.Errorf("velocity lost: vx = %v", vx)
	}

	w.SetPosition(99, 1, 1) // unknown ids are ignored
}
