// Package reconcile turns sparse server snapshots into smooth per-frame
// positions on the client side.
package reconcile

import (
	"math"
)

// Snapshot is one authoritative sample of an entity. Units are pixels,
// pixels per second and radians; Tick is the server unix ms.
type Snapshot struct {
	X, Y   float64
	VX, VY float64
	Angle  float64
	VAngle float64
	Tick   int64
}

// Reconciler holds the smoothing parameters shared by every track.
type Reconciler struct {
	// SmoothFactor is the share of the remaining error closed each frame.
	SmoothFactor float64
	// SmoothCap bounds the displacement applied in one frame, in pixels.
	SmoothCap float64
	// Below LowSpeed (px/s) LowSpeedFactor is used instead of SmoothFactor,
	// so nearly resting entities settle without visible lag.
	LowSpeed       float64
	LowSpeedFactor float64
}

func Default() Reconciler {
	return Reconciler{
		SmoothFactor:   0.1,
		SmoothCap:      10,
		LowSpeed:       5,
		LowSpeedFactor: 0.3,
	}
}

// NewTrack starts a track placed exactly on s.
func (r Reconciler) NewTrack(s Snapshot) *Track {
	t := &Track{cfg: r}
	t.Snap(s)
	return t
}

// Track is the locally displayed state of one entity.
type Track struct {
	X, Y  float64
	Angle float64

	target Snapshot
	cfg    Reconciler
}

// Target returns the latest snapshot applied.
func (t *Track) Target() Snapshot {
	return t.target
}

// Apply records a new authoritative sample. Samples older than the current
// one are ignored.
func (t *Track) Apply(s Snapshot) {
	if s.Tick < t.target.Tick {
		return
	}
	t.target = s
}

// Snap places the track on s with no blending.
func (t *Track) Snap(s Snapshot) {
	t.target = s
	t.X, t.Y, t.Angle = s.X, s.Y, s.Angle
}

// Advance moves the displayed state one frame towards the target
// extrapolated to nowMs and returns it. Position moves at most SmoothCap per
// call; angle is not capped.
func (t *Track) Advance(nowMs int64) (x, y, angle float64) {
	s := t.target
	dt := float64(nowMs-s.Tick) / 1000
	if dt < 0 {
		dt = 0
	}
	px := s.X + s.VX*dt
	py := s.Y + s.VY*dt
	pa := s.Angle + s.VAngle*dt

	f := t.cfg.SmoothFactor
	if math.Hypot(s.VX, s.VY) < t.cfg.LowSpeed {
		f = t.cfg.LowSpeedFactor
	}

	dx := (px - t.X) * f
	dy := (py - t.Y) * f
	if d := math.Hypot(dx, dy); d > t.cfg.SmoothCap {
		dx *= t.cfg.SmoothCap / d
		dy *= t.cfg.SmoothCap / d
	}
	t.X += dx
	t.Y += dy
	t.Angle += ShortestArc(t.Angle, pa) * f

	return t.X, t.Y, t.Angle
}

// ShortestArc is the signed angle in (-pi, pi] that turns from onto to.
func ShortestArc(from, to float64) float64 {
	d := math.Mod(to-from, 2*math.Pi)
	switch {
	case d > math.Pi:
		d -= 2 * math.Pi
	case d <= -math.Pi:
		d += 2 * math.Pi
	}
	return d
}

// ShouldSnap reports whether (x, y) is further than threshold from the
// viewer, in which case the caller should Snap instead of Apply.
func ShouldSnap(viewerX, viewerY, x, y, threshold float64) bool {
	return math.Hypot(x-viewerX, y-viewerY) > threshold
}
