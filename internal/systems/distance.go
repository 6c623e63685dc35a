package systems

import (
	"dice-io-server/internal/domain"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownEntity is returned for ids that were never inserted or were removed.
var ErrUnknownEntity = errors.New("unknown entity")

// Transform is the part of an entity the cache reads.
type Transform struct {
	ID domain.EntityID
	X  float64
	Y  float64
}

// TransformOf extracts a Transform from a player.
func TransformOf(p *domain.Player) Transform {
	return Transform{ID: p.ID, X: p.X, Y: p.Y}
}

// DistanceCache is a symmetric all-pairs distance matrix keyed by entity id.
// Not safe for concurrent use; the game loop owns it.
type DistanceCache struct {
	rows map[domain.EntityID]map[domain.EntityID]float64
}

func NewDistanceCache() *DistanceCache {
	return &DistanceCache{rows: make(map[domain.EntityID]map[domain.EntityID]float64)}
}

// RebuildAll recomputes every pair from scratch.
func (c *DistanceCache) RebuildAll(ts []Transform) {
	rows := make(map[domain.EntityID]map[domain.EntityID]float64, len(ts))
	for _, t := range ts {
		rows[t.ID] = make(map[domain.EntityID]float64, len(ts))
	}
	for i, a := range ts {
		rows[a.ID][a.ID] = 0
		for _, b := range ts[i+1:] {
			d := math.Hypot(a.X-b.X, a.Y-b.Y)
			rows[a.ID][b.ID] = d
			rows[b.ID][a.ID] = d
		}
	}
	c.rows = rows
}

// Insert adds or refreshes one entity against others without touching the
// rest of the matrix. Calling it twice with the same positions is a no-op.
func (c *DistanceCache) Insert(t Transform, others []Transform) {
	row := make(map[domain.EntityID]float64, len(others)+1)
	row[t.ID] = 0
	for _, o := range others {
		if o.ID == t.ID {
			continue
		}
		d := math.Hypot(t.X-o.X, t.Y-o.Y)
		row[o.ID] = d
		if orow, ok := c.rows[o.ID]; ok {
			orow[t.ID] = d
		}
	}
	c.rows[t.ID] = row
}

// Remove drops the entity's row. Other rows keep a stale column for it,
// which DistanceBetween never reads because it checks both rows.
func (c *DistanceCache) Remove(id domain.EntityID) {
	delete(c.rows, id)
}

// Has reports whether id currently has a row.
func (c *DistanceCache) Has(id domain.EntityID) bool {
	_, ok := c.rows[id]
	return ok
}

// DistanceBetween is the symmetric lookup.
func (c *DistanceCache) DistanceBetween(a, b domain.EntityID) (float64, error) {
	rowA, ok := c.rows[a]
	if !ok {
		return 0, fmt.Errorf("distance %v-%v: %w %v", a, b, ErrUnknownEntity, a)
	}
	if _, ok := c.rows[b]; !ok {
		return 0, fmt.Errorf("distance %v-%v: %w %v", a, b, ErrUnknownEntity, b)
	}
	d, ok := rowA[b]
	if !ok {
		return 0, fmt.Errorf("distance %v-%v: %w pair", a, b, ErrUnknownEntity)
	}
	return d, nil
}

// MustDistance panics on unknown ids. For callers that already hold both
// ids from the same rebuild.
func (c *DistanceCache) MustDistance(a, b domain.EntityID) float64 {
	d, err := c.DistanceBetween(a, b)
	if err != nil {
		panic(err)
	}
	return d
}

func (c *DistanceCache) Len() int {
	return len(c.rows)
}
