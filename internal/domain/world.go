package domain

import "sort"

// World is the entity arena: the canonical owner of every player. Physics
// bodies and the distance cache refer to players by EntityID and resolve
// them here, so a removed player can never be reached through a stale
// reference.
type World struct {
	Width  float64
	Height float64

	players map[EntityID]*Player
	byConn  map[string]EntityID
}

func NewWorld(width, height float64) *World {
	return &World{
		Width:   width,
		Height:  height,
		players: make(map[EntityID]*Player),
		byConn:  make(map[string]EntityID),
	}
}

// Register adds p to the arena. A second registration replaces the first.
func (w *World) Register(p *Player) {
	w.players[p.ID] = p
	if p.ConnID != "" {
		w.byConn[p.ConnID] = p.ID
	}
}

// Unregister removes the player and its connection mapping.
func (w *World) Unregister(id EntityID) {
	p, ok := w.players[id]
	if !ok {
		return
	}
	if p.ConnID != "" && w.byConn[p.ConnID] == id {
		delete(w.byConn, p.ConnID)
	}
	delete(w.players, id)
}

// Get returns nil for unknown ids.
func (w *World) Get(id EntityID) *Player {
	return w.players[id]
}

// ByConn finds the human attached to a connection.
func (w *World) ByConn(connID string) *Player {
	id, ok := w.byConn[connID]
	if !ok {
		return nil
	}
	return w.players[id]
}

// All returns the players ordered by id, so every pass over the arena is
// deterministic.
func (w *World) All() []*Player {
	out := make([]*Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Len() int {
	return len(w.players)
}

// Contains reports whether (x, y) lies inside the world rectangle.
func (w *World) Contains(x, y float64) bool {
	return x >= 0 && x <= w.Width && y >= 0 && y <= w.Height
}

// Center returns the middle of the world.
func (w *World) Center() (float64, float64) {
	return w.Width / 2, w.Height / 2
}
