// Package watch streams round updates for a run over a websocket. Watchers
// are read-only: the server pushes a message whenever a round resolves, and
// anything a watcher sends is discarded.
package watch

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Hub struct {
	log *log.Logger

	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	out chan []byte
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[string]map[*subscriber]struct{}{},
	}
}

// Publish sends v to every watcher of runID. Slow watchers drop messages
// rather than stalling the round pipeline.
func (h *Hub) Publish(runID string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Printf("watch publish marshal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[runID] {
		select {
		case sub.out <- b:
		default:
		}
	}
}

// Watchers reports how many connections are subscribed to runID.
func (h *Hub) Watchers(runID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[runID])
}

// Serve upgrades the request and streams updates for runID until the client
// disconnects.
func (h *Hub) Serve(rw http.ResponseWriter, r *http.Request, runID string) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := &subscriber{out: make(chan []byte, 16)}
	h.add(runID, sub)
	defer h.remove(runID, sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Writer goroutine.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case b := <-sub.out:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Reader loop: watchers never send, but reading is what surfaces a
	// closed connection.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			return
		}
	}
}

func (h *Hub) add(runID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[runID] == nil {
		h.subs[runID] = map[*subscriber]struct{}{}
	}
	h.subs[runID][sub] = struct{}{}
}

func (h *Hub) remove(runID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[runID], sub)
	if len(h.subs[runID]) == 0 {
		delete(h.subs, runID)
	}
}
