package engine

import (
	"container/heap"
	"dice-io-server/internal/domain"
)

// RespawnItem is one player waiting for its elimination deadline.
type RespawnItem struct {
	ID  domain.EntityID
	Due int64 // unix ms, the player's DeleteAfterTick
	// Index in the heap, maintained by the heap interface.
	Index int
}

// respawnHeap is a min-heap on Due.
type respawnHeap []*RespawnItem

func (h respawnHeap) Len() int { return len(h) }

func (h respawnHeap) Less(i, j int) bool {
	if h[i].Due == h[j].Due {
		return h[i].ID < h[j].ID
	}
	return h[i].Due < h[j].Due
}

func (h respawnHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *respawnHeap) Push(x interface{}) {
	item := x.(*RespawnItem)
	item.Index = len(*h)
	*h = append(*h, item)
}

func (h *respawnHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*h = old[:n-1]
	return item
}

// RespawnQueue orders eliminated players by deadline. At most one entry
// per player.
type RespawnQueue struct {
	items respawnHeap
	byID  map[domain.EntityID]*RespawnItem
}

func NewRespawnQueue() *RespawnQueue {
	return &RespawnQueue{byID: make(map[domain.EntityID]*RespawnItem)}
}

func (q *RespawnQueue) Len() int { return q.items.Len() }

// Schedule adds id or moves its existing entry to due.
func (q *RespawnQueue) Schedule(id domain.EntityID, due int64) {
	if item, ok := q.byID[id]; ok {
		item.Due = due
		heap.Fix(&q.items, item.Index)
		return
	}
	item := &RespawnItem{ID: id, Due: due}
	heap.Push(&q.items, item)
	q.byID[id] = item
}

func (q *RespawnQueue) Remove(id domain.EntityID) {
	item, ok := q.byID[id]
	if !ok {
		return
	}
	heap.Remove(&q.items, item.Index)
	delete(q.byID, id)
}

// Peek returns the earliest entry without removing it.
func (q *RespawnQueue) Peek() *RespawnItem {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// PopDue removes and returns every id whose deadline is at or before now,
// earliest first.
func (q *RespawnQueue) PopDue(now int64) []domain.EntityID {
	var due []domain.EntityID
	for len(q.items) > 0 && q.items[0].Due <= now {
		item := heap.Pop(&q.items).(*RespawnItem)
		delete(q.byID, item.ID)
		due = append(due, item.ID)
	}
	return due
}
