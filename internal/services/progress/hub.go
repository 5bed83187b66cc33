package progress

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"retail-ops/internal/forecast"

	"github.com/gorilla/websocket"
)

// Hub broadcasts batch-training progress to connected websocket clients.
// One goroutine owns the event loop; register/unregister/broadcast all go
// through channels so the client set needs no external locking.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	events     chan forecast.ProgressEvent
	done       chan struct{}
	closeOnce  sync.Once
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Progress stream is read-only telemetry for the admin UI
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		events:     make(chan forecast.ProgressEvent, 256),
		done:       make(chan struct{}),
	}
}

// Start begins the broadcast event loop.
func (h *Hub) Start() {
	go func() {
		for {
			select {
			case <-h.done:
				for conn := range h.clients {
					conn.Close()
				}
				return

			case conn := <-h.register:
				h.clients[conn] = true

			case conn := <-h.unregister:
				if h.clients[conn] {
					delete(h.clients, conn)
					conn.Close()
				}

			case event := <-h.events:
				payload, err := json.Marshal(event)
				if err != nil {
					continue
				}
				for conn := range h.clients {
					if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
						delete(h.clients, conn)
						conn.Close()
					}
				}
			}
		}
	}()

	log.Println("✓ Training progress hub started")
}

// Publish queues an event for broadcast. Non-blocking: if the buffer is
// full the event is dropped rather than stalling a training worker.
func (h *Hub) Publish(event forecast.ProgressEvent) {
	select {
	case h.events <- event:
	default:
	}
}

// ServeWS upgrades the request and attaches the client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  WebSocket upgrade failed: %v", err)
		return
	}

	h.register <- conn

	// Drain reads so close frames are processed; clients never send data.
	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Shutdown closes all client connections and stops the event loop.
func (h *Hub) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}
