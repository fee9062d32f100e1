package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/visionforge/api/internal/model"
)

// Client represents a WebSocket client watching one production
type Client struct {
	ProductionID string
	Conn         *websocket.Conn
	Send         chan []byte
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by production ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Broadcast messages to production subscribers
	broadcast chan *BroadcastMessage

	// Disconnect every client of a production
	closing chan string

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast. A non-nil Client
// limits delivery to that one subscriber.
type BroadcastMessage struct {
	ProductionID string
	Message      []byte
	Client       *Client
}

// Source is the production a new client watches. View must call fn while no
// transition can commit, so the first snapshot is ordered with the broadcasts
// around it.
type Source interface {
	ID() string
	View(fn func(model.Production))
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		closing:    make(chan string, 16),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ProductionID] == nil {
				h.clients[client.ProductionID] = make(map[*Client]bool)
			}
			h.clients[client.ProductionID][client] = true
			h.mu.Unlock()
			log.Printf("[Hub] client registered for production %s", client.ProductionID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("[Hub] client unregistered from production %s", client.ProductionID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.ProductionID] {
				if msg.Client != nil && msg.Client != client {
					continue
				}
				select {
				case client.Send <- msg.Message:
				default:
					// slow reader; it reconnects and gets a fresh snapshot
					h.remove(client)
				}
			}
			h.mu.Unlock()

		case id := <-h.closing:
			h.mu.Lock()
			for client := range h.clients[id] {
				h.remove(client)
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.ProductionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		if len(clients) == 0 {
			delete(h.clients, client.ProductionID)
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Watching returns the number of clients attached to a production
func (h *Hub) Watching(productionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[productionID])
}

// BroadcastSnapshot sends the production state to its subscribers. It has the
// shape of a store observer.
func (h *Hub) BroadcastSnapshot(p model.Production) {
	if h.Watching(p.ID) == 0 {
		return
	}

	data, err := marshalSnapshot(p)
	if err != nil {
		log.Printf("[Hub] failed to marshal snapshot: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		ProductionID: p.ID,
		Message:      data,
	}
}

// BroadcastError sends an error message to all production subscribers
func (h *Hub) BroadcastError(productionID string, code, message string) {
	msg := model.WSErrorMessage{
		Type:      model.WSMessageTypeError,
		SessionID: productionID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[Hub] failed to marshal error message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		ProductionID: productionID,
		Message:      data,
	}
}

// Disconnect closes every connection watching a production
func (h *Hub) Disconnect(productionID string) {
	h.closing <- productionID
}

// attach registers a client for src and then queues its current state, so no
// transition falls between the first snapshot and the broadcasts that follow.
func (h *Hub) attach(c *websocket.Conn, src Source) *Client {
	client := &Client{
		ProductionID: src.ID(),
		Conn:         c,
		Send:         make(chan []byte, 256),
	}
	h.Register(client)

	src.View(func(p model.Production) {
		data, err := marshalSnapshot(p)
		if err != nil {
			log.Printf("[Hub] failed to marshal snapshot: %v", err)
			return
		}
		h.broadcast <- &BroadcastMessage{ProductionID: p.ID, Message: data, Client: client}
	})
	return client
}

// HandleConnection handles a WebSocket connection. The client starts from the
// production's current state.
func (h *Hub) HandleConnection(c *websocket.Conn, src Source) {
	client := h.attach(c, src)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Hub] websocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			h.mu.RLock()
			if h.clients[client.ProductionID][client] {
				select {
				case client.Send <- data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func marshalSnapshot(p model.Production) ([]byte, error) {
	return json.Marshal(model.WSSnapshotMessage{
		Type:       model.WSMessageTypeSnapshot,
		SessionID:  p.ID,
		Production: p,
	})
}
