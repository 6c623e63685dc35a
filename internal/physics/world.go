package physics

import (
	"dice-io-server/internal/domain"
	"dice-io-server/pkg/logger"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/solarlune/resolv"
)

// Body damping, as configured on the original Box2D body definitions.
const (
	DefaultLinearDamping  = 0.005
	DefaultAngularDamping = 0.0005
)

// ContactListener receives overlap transitions. It is called from inside
// Step, so it must not create or destroy bodies directly; use
// ScheduleCreate and ScheduleDestroy instead.
type ContactListener interface {
	BeginContact(a, b BodyRef)
	EndContact(a, b BodyRef)
}

// Syncer copies state between entities and bodies around the solver step.
type Syncer interface {
	// ReadInto writes the entity's authoritative pose into b.
	ReadInto(b *Body)
	// WriteFrom copies the stepped body back into the entity.
	WriteFrom(b *Body)
}

// Options configures a World. Width and Height are the broadphase extent in
// pixels.
type Options struct {
	Width          float64
	Height         float64
	CellSize       int
	LinearDamping  float64
	AngularDamping float64
}

func DefaultOptions(width, height float64) Options {
	return Options{
		Width:          width,
		Height:         height,
		CellSize:       32,
		LinearDamping:  DefaultLinearDamping,
		AngularDamping: DefaultAngularDamping,
	}
}

type pendingCreate struct {
	def       BodyDef
	onCreated func()
}

type pair struct {
	a, b domain.EntityID
}

func makePair(a, b domain.EntityID) pair {
	if b < a {
		a, b = b, a
	}
	return pair{a, b}
}

// World owns every body and the broadphase space. Bodies are sensors: they
// report overlap but never push each other apart.
type World struct {
	opts     Options
	space    *resolv.Space
	bodies   map[domain.EntityID]*Body
	listener ContactListener

	createQueue  []pendingCreate
	destroyQueue []domain.EntityID

	contacts map[pair]struct{}

	log *logrus.Entry
}

func NewWorld(opts Options, listener ContactListener) *World {
	if opts.CellSize <= 0 {
		opts.CellSize = 32
	}
	return &World{
		opts:     opts,
		space:    resolv.NewSpace(int(opts.Width), int(opts.Height), opts.CellSize, opts.CellSize),
		bodies:   make(map[domain.EntityID]*Body),
		listener: listener,
		contacts: make(map[pair]struct{}),
		log:      logger.Component("physics"),
	}
}

// ScheduleCreate queues a body; it appears after the next step's solver
// pass, and onCreated runs at that point.
func (w *World) ScheduleCreate(def BodyDef, onCreated func()) {
	w.createQueue = append(w.createQueue, pendingCreate{def: def, onCreated: onCreated})
}

// ScheduleDestroy queues removal of the body for id. A create for the same
// id that has not run yet is cancelled.
func (w *World) ScheduleDestroy(id domain.EntityID) {
	kept := w.createQueue[:0]
	for _, pc := range w.createQueue {
		if pc.def.Ref.ID != id {
			kept = append(kept, pc)
		}
	}
	w.createQueue = kept
	w.destroyQueue = append(w.destroyQueue, id)
}

// Step advances the world by dt seconds:
//  1. destroy queued bodies
//  2. read entity poses into bodies
//  3. integrate and dispatch contacts
//  4. create queued bodies
//  5. write bodies back into entities
func (w *World) Step(dt float64, sync Syncer) {
	w.flushDestroy()

	ordered := w.ordered()
	for _, b := range ordered {
		sync.ReadInto(b)
	}

	for _, b := range ordered {
		b.integrate(dt, w.opts.LinearDamping, w.opts.AngularDamping)
		b.placeObject()
		b.obj.Update()
	}
	w.dispatchContacts(ordered)

	w.flushCreate()

	for _, b := range w.ordered() {
		sync.WriteFrom(b)
	}
}

func (w *World) flushDestroy() {
	if len(w.destroyQueue) == 0 {
		return
	}
	queue := w.destroyQueue
	w.destroyQueue = nil

	for _, id := range queue {
		b, ok := w.bodies[id]
		if !ok {
			continue
		}
		for p := range w.contacts {
			if p.a == id || p.b == id {
				delete(w.contacts, p)
				w.notifyEnd(p)
			}
		}
		w.space.Remove(b.obj)
		delete(w.bodies, id)
		w.log.WithField("entity_id", id).Debug("Body destroyed")
	}
}

func (w *World) flushCreate() {
	if len(w.createQueue) == 0 {
		return
	}
	queue := w.createQueue
	w.createQueue = nil

	for _, pc := range queue {
		if old, ok := w.bodies[pc.def.Ref.ID]; ok {
			w.space.Remove(old.obj)
		}
		b := newBody(pc.def)
		w.space.Add(b.obj)
		w.bodies[pc.def.Ref.ID] = b
		w.log.WithFields(logrus.Fields{
			"entity_id": pc.def.Ref.ID,
			"label":     pc.def.Ref.Label,
		}).Debug("Body created")
		if pc.onCreated != nil {
			pc.onCreated()
		}
	}
}

// dispatchContacts finds overlapping pairs and reports only the transitions
// since the previous step, in id order.
func (w *World) dispatchContacts(ordered []*Body) {
	current := make(map[pair]struct{})
	for _, b := range ordered {
		hit := b.obj.Check(0, 0)
		if hit == nil {
			continue
		}
		for _, obj := range hit.Objects {
			ref, ok := obj.Data.(BodyRef)
			if !ok || ref.ID <= b.Ref.ID {
				continue
			}
			other, ok := w.bodies[ref.ID]
			if !ok || !b.overlaps(other) {
				continue
			}
			current[makePair(b.Ref.ID, ref.ID)] = struct{}{}
		}
	}

	var begun, ended []pair
	for p := range current {
		if _, ok := w.contacts[p]; !ok {
			begun = append(begun, p)
		}
	}
	for p := range w.contacts {
		if _, ok := current[p]; !ok {
			ended = append(ended, p)
		}
	}
	w.contacts = current

	sortPairs(ended)
	for _, p := range ended {
		w.notifyEnd(p)
	}
	sortPairs(begun)
	for _, p := range begun {
		if w.listener != nil {
			w.listener.BeginContact(w.bodies[p.a].Ref, w.bodies[p.b].Ref)
		}
	}
}

func (w *World) notifyEnd(p pair) {
	if w.listener == nil {
		return
	}
	a, b := BodyRef{ID: p.a}, BodyRef{ID: p.b}
	if body, ok := w.bodies[p.a]; ok {
		a = body.Ref
	}
	if body, ok := w.bodies[p.b]; ok {
		b = body.Ref
	}
	w.listener.EndContact(a, b)
}

func sortPairs(ps []pair) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].a != ps[j].a {
			return ps[i].a < ps[j].a
		}
		return ps[i].b < ps[j].b
	})
}

func (w *World) ordered() []*Body {
	out := make([]*Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out
}

// HasBody reports whether id currently owns a live body.
func (w *World) HasBody(id domain.EntityID) bool {
	_, ok := w.bodies[id]
	return ok
}

func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Pending returns the queued create and destroy counts.
func (w *World) Pending() (creates, destroys int) {
	return len(w.createQueue), len(w.destroyQueue)
}

// Body returns the live body for id, or nil.
func (w *World) Body(id domain.EntityID) *Body {
	return w.bodies[id]
}

// SetVelocity sets the linear velocity in metres per second.
func (w *World) SetVelocity(id domain.EntityID, vx, vy float64) {
	if b, ok := w.bodies[id]; ok {
		b.VX, b.VY = vx, vy
	}
}

func (w *World) Velocity(id domain.EntityID) (vx, vy float64, ok bool) {
	b, ok := w.bodies[id]
	if !ok {
		return 0, 0, false
	}
	return b.VX, b.VY, true
}

func (w *World) SetAngularVelocity(id domain.EntityID, omega float64) {
	if b, ok := w.bodies[id]; ok {
		b.Omega = omega
	}
}

// ApplyImpulse applies a linear impulse (kg*m/s) at the centre of mass.
func (w *World) ApplyImpulse(id domain.EntityID, ix, iy float64) {
	w.ApplyImpulseAt(id, ix, iy, 0, 0)
}

// ApplyImpulseAt applies an impulse at an offset from the centre, in metres.
// Off-centre impulses also spin the body.
func (w *World) ApplyImpulseAt(id domain.EntityID, ix, iy, ox, oy float64) {
	if b, ok := w.bodies[id]; ok {
		b.applyImpulse(ix, iy, ox, oy)
	}
}

// SetPosition teleports a body, in metres. Velocities are kept.
func (w *World) SetPosition(id domain.EntityID, x, y float64) {
	if b, ok := w.bodies[id]; ok {
		b.X, b.Y = x, y
		b.placeObject()
		b.obj.Update()
	}
}
