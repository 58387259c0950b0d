package stream

import (
	"sync"
)

// Hub holds the most recent preview frame for stream clients.
type Hub struct {
	mu      sync.RWMutex
	frame   []byte
	version uint64
}

func NewHub() *Hub {
	return &Hub{}
}

// Update replaces the current frame. The hub keeps buf; callers must not reuse it.
func (h *Hub) Update(buf []byte) {
	h.mu.Lock()
	h.frame = buf
	h.version++
	h.mu.Unlock()
}

// Latest returns the current frame and its version; version 0 means no
// frame has been published yet.
func (h *Hub) Latest() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frame, h.version
}
