package network

import (
	"dice-io-server/pkg/logger"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
)

// Message is one outbound event. Each connection encodes it with its own codec.
type Message struct {
	Event   string
	Payload any
}

// Broadcaster fans outbound messages to per-connection channels.
type Broadcaster struct {
	mu deadlock.RWMutex
	// connection id -> outbound queue
	subscribers map[string]chan Message

	dropped atomic.Int64
}

const subscriberBuffer = 100

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]chan Message),
	}
}

// Register opens the outbound queue of a connection, closing any previous one.
func (b *Broadcaster) Register(connID string) chan Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[connID]; ok {
		close(old)
	}

	ch := make(chan Message, subscriberBuffer)
	b.subscribers[connID] = ch
	return ch
}

func (b *Broadcaster) Unregister(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[connID]; ok {
		close(ch)
		delete(b.subscribers, connID)
	}
}

// SendTo queues msg for one connection. A full queue drops the message.
func (b *Broadcaster) SendTo(connID string, msg Message) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ch, ok := b.subscribers[connID]
	if !ok {
		return false
	}
	return b.offer(connID, ch, msg)
}

// Broadcast queues msg for every connection.
func (b *Broadcaster) Broadcast(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		b.offer(id, ch, msg)
	}
}

func (b *Broadcaster) offer(connID string, ch chan Message, msg Message) bool {
	select {
	case ch <- msg:
		return true
	default:
		if b.dropped.Add(1)%100 == 1 {
			logger.Component("hub").WithField("conn_id", connID).Warn("Outbound queue full, dropping messages.")
		}
		return false
	}
}

func (b *Broadcaster) HasSubscriber(connID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[connID]
	return ok
}

func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped is the number of messages lost to full queues.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}
