package domain

import (
	"strconv"
	"sync/atomic"
)

// EntityID identifies a player for the lifetime of the process. Ids are
// handed out by a monotonic counter and never reused; bots keep theirs across
// respawns.
type EntityID uint32

var lastEntityID atomic.Uint32

// NextEntityID allocates a fresh id. Zero is never returned.
func NextEntityID() EntityID {
	return EntityID(lastEntityID.Add(1))
}

// String is used in logs.
func (id EntityID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}
