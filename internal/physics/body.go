package physics

import (
	"dice-io-server/internal/domain"
	"math"

	"github.com/solarlune/resolv"
)

// density of every body, in kg per square metre.
const density = 1.0

// BodyRef is the user data stored on a body: the owning entity's id and a
// role label. Contacts hand these out, never the body or the entity.
type BodyRef struct {
	ID    domain.EntityID
	Label string
}

// BodyDef describes a body to create. Units are metres.
type BodyDef struct {
	Ref    BodyRef
	X, Y   float64
	Angle  float64
	Radius float64
}

// Body is a sensor circle. Position and velocity are in metres and metres
// per second, angles in radians.
type Body struct {
	Ref BodyRef

	X, Y  float64
	Angle float64

	VX, VY float64
	Omega  float64

	Radius  float64
	Mass    float64
	Inertia float64

	obj *resolv.Object
}

func newBody(def BodyDef) *Body {
	mass := density * math.Pi * def.Radius * def.Radius
	b := &Body{
		Ref:     def.Ref,
		X:       def.X,
		Y:       def.Y,
		Angle:   def.Angle,
		Radius:  def.Radius,
		Mass:    mass,
		Inertia: 0.5 * mass * def.Radius * def.Radius,
	}
	size := 2 * def.Radius * domain.MeterToPixel
	b.obj = resolv.NewObject(0, 0, size, size, def.Ref.Label)
	b.obj.Data = def.Ref
	b.placeObject()
	return b
}

// placeObject moves the broadphase box to the body's position. The space is
// laid out in pixels.
func (b *Body) placeObject() {
	r := b.Radius * domain.MeterToPixel
	b.obj.X = b.X*domain.MeterToPixel - r
	b.obj.Y = b.Y*domain.MeterToPixel - r
}

// applyImpulse applies an impulse at a point given relative to the centre.
func (b *Body) applyImpulse(ix, iy, ox, oy float64) {
	if b.Mass <= 0 {
		return
	}
	b.VX += ix / b.Mass
	b.VY += iy / b.Mass
	if b.Inertia > 0 {
		b.Omega += (ox*iy - oy*ix) / b.Inertia
	}
}

// integrate advances one step with the damping rule Box2D uses:
// v *= 1 / (1 + dt*damping).
func (b *Body) integrate(dt, linearDamping, angularDamping float64) {
	b.VX *= 1 / (1 + dt*linearDamping)
	b.VY *= 1 / (1 + dt*linearDamping)
	b.Omega *= 1 / (1 + dt*angularDamping)

	b.X += b.VX * dt
	b.Y += b.VY * dt
	b.Angle += b.Omega * dt
}

func (b *Body) overlaps(o *Body) bool {
	dx := b.X - o.X
	dy := b.Y - o.Y
	r := b.Radius + o.Radius
	return dx*dx+dy*dy < r*r
}
