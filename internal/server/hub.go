// hub.go - fans terminal frames out to websocket clients
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"termcore/internal/vt"
)

// Hub polls the terminal once per frame and hands each changed snapshot to
// every connected client. A client that falls behind only ever sees the
// newest frame.
type Hub struct {
	term  *vt.Terminal
	frame time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
}

func NewHub(term *vt.Terminal, frame time.Duration) *Hub {
	return &Hub{
		term:    term,
		frame:   frame,
		clients: make(map[chan []byte]struct{}),
	}
}

// Connect registers a client and returns the channel its frames arrive on.
// The channel is closed when the hub stops.
func (h *Hub) Connect() chan []byte {
	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Disconnect(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Emit hands frame to every client, replacing any frame still pending.
func (h *Hub) Emit(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- frame:
			default:
			}
		}
	}
}

// Run emits a frame whenever the terminal generation moves, until ctx is
// done. Clients are disconnected on return.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.frame)
	defer ticker.Stop()
	defer h.closeAll()

	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gen := h.term.Generation()
			if gen == last || h.Clients() == 0 {
				continue
			}
			frame, err := encodeSnapshot(h.term)
			if err != nil {
				log.Printf("[server] encode frame: %v", err)
				continue
			}
			last = gen
			h.Emit(frame)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
}

func encodeSnapshot(term *vt.Terminal) ([]byte, error) {
	return json.Marshal(term.Snapshot())
}
