package communication

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 5 * time.Second

// WebSocketManager fans events out to every connected websocket client.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewWSManager creates a manager; call Run to start delivering events.
func NewWSManager(logger zerolog.Logger) *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run delivers events until ctx is done, then closes every client.
func (manager *WebSocketManager) Run(ctx context.Context) {
	defer close(manager.done)
	for {
		select {
		case <-ctx.Done():
			manager.mu.Lock()
			for client := range manager.clients {
				client.Close()
				delete(manager.clients, client)
			}
			manager.mu.Unlock()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client] = true
			manager.mu.Unlock()

		case client := <-manager.unregister:
			manager.mu.Lock()
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				client.Close()
			}
			manager.mu.Unlock()

		case event := <-manager.broadcast:
			manager.mu.Lock()
			for client := range manager.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteJSON(event); err != nil {
					manager.logger.Debug().Err(err).Msg("WebSocket write failed, dropping client")
					client.Close()
					delete(manager.clients, client)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// Publish queues event for broadcast. When the queue is full the event is
// dropped.
func (manager *WebSocketManager) Publish(event Event) {
	select {
	case manager.broadcast <- event:
	default:
		manager.logger.Warn().Str("type", event.Type).Msg("WebSocket broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (manager *WebSocketManager) ClientCount() int {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return len(manager.clients)
}

// Join adds conn to the broadcast set. It returns false, closing conn, once
// the manager has stopped.
func (manager *WebSocketManager) Join(conn *websocket.Conn) bool {
	select {
	case manager.register <- conn:
		return true
	case <-manager.done:
		conn.Close()
		return false
	}
}

// Leave removes and closes conn.
func (manager *WebSocketManager) Leave(conn *websocket.Conn) {
	select {
	case manager.unregister <- conn:
	case <-manager.done:
	}
}
