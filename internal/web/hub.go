package web

import (
	"sync"
	"sync/atomic"
)

// Hub fans out encoded messages to live subscribers (websocket clients).
// Slow subscribers lose messages rather than stall the decoder.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan []byte
	nextID int
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan []byte)}
}

func (h *Hub) Subscribe(buffer int) (int, <-chan []byte) {
	if h == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan []byte, buffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return -1, ch
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) Unsubscribe(id int) {
	if h == nil {
		return
	}
	h.mu.Lock()
	ch, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
}

// Close ends every subscription; websocket clients are sent a going-away
// close frame.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish hands msg to every subscriber without blocking. msg must not be
// modified afterwards.
func (h *Hub) Publish(msg []byte) {
	if h == nil || len(msg) == 0 {
		return
	}
	h.published.Add(1)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) Published() uint64 { return h.published.Load() }
