package reconcile

import (
	"dice-io-server/pkg/api"
	"sort"
)

// DefaultSnapDistance is how far from the viewer an updated entity may be
// before its track is snapped instead of smoothed.
const DefaultSnapDistance = 400.0

// Scene keeps one track per visible entity.
type Scene struct {
	Reconciler   Reconciler
	SnapDistance float64

	tracks map[uint32]*Track
	self   uint32
}

func NewScene(r Reconciler) *Scene {
	return &Scene{
		Reconciler:   r,
		SnapDistance: DefaultSnapDistance,
		tracks:       make(map[uint32]*Track),
	}
}

// Apply feeds a server snapshot into the scene. New entities are placed
// directly. Known entities are snapped when the new sample lies further
// than SnapDistance from the viewer's displayed position (the viewer itself
// teleporting included) and smoothed otherwise. A full snapshot also drops
// tracks for entities no longer listed.
func (s *Scene) Apply(msg api.StateMessage) {
	vx, vy, haveViewer := s.viewer(msg)

	seen := make(map[uint32]bool, len(msg.Entities))
	for _, e := range msg.Entities {
		seen[e.EntityID] = true
		if e.IsCtrl {
			s.self = e.EntityID
		}
		snap := Snapshot{
			X: e.X, Y: e.Y, VX: e.VX, VY: e.VY,
			Angle: e.Angle, VAngle: e.VAngle, Tick: msg.Tick,
		}

		t, ok := s.tracks[e.EntityID]
		if !ok {
			s.tracks[e.EntityID] = s.Reconciler.NewTrack(snap)
			continue
		}
		if haveViewer && ShouldSnap(vx, vy, e.X, e.Y, s.SnapDistance) {
			t.Snap(snap)
			continue
		}
		t.Apply(snap)
	}

	if msg.Full {
		for id := range s.tracks {
			if !seen[id] {
				delete(s.tracks, id)
			}
		}
	}
}

// viewer is the displayed position of the controlled entity before msg is
// applied. msg may name a different controlled entity than the scene knew.
func (s *Scene) viewer(msg api.StateMessage) (x, y float64, ok bool) {
	id := s.self
	for _, e := range msg.Entities {
		if e.IsCtrl {
			id = e.EntityID
			break
		}
	}
	t, ok := s.tracks[id]
	if !ok {
		return 0, 0, false
	}
	return t.X, t.Y, true
}

// Advance moves every track one frame.
func (s *Scene) Advance(nowMs int64) {
	for _, t := range s.tracks {
		t.Advance(nowMs)
	}
}

// Self is the controlled entity's track, nil before the first snapshot
// naming it.
func (s *Scene) Self() *Track {
	return s.tracks[s.self]
}

func (s *Scene) SelfID() uint32 {
	return s.self
}

func (s *Scene) Track(id uint32) *Track {
	return s.tracks[id]
}

// IDs lists the tracked entities in ascending order.
func (s *Scene) IDs() []uint32 {
	ids := make([]uint32, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
