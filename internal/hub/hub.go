package hub

import (
	"encoding/json"
	"sync"

	"github.com/tzkusman/live-storefront/internal/log"
)

// Hub tracks every connected presence client. The deployment has a single
// shared channel, so there is no room partitioning: a broadcast reaches all
// registered clients.
type Hub struct {
	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type broadcastMessage struct {
	Message []byte
	Exclude string // Client ID to exclude
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	l := log.Component("hub")
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.closeSend()
			}
			h.mu.Unlock()
			l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for clientID, client := range h.clients {
				if clientID == msg.Exclude {
					continue
				}
				select {
				case client.Send <- msg.Message:
				default:
					go h.removeClient(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends a message to every client except the excluded one.
// Pass an empty exclude to reach everyone.
func (h *Hub) Broadcast(message interface{}, exclude string) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.broadcast <- &broadcastMessage{
		Message: data,
		Exclude: exclude,
	}
	return nil
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop closes every client connection and ends Run().
func (h *Hub) Stop() {
	h.mu.Lock()
	for id, client := range h.clients {
		delete(h.clients, id)
		client.closeSend()
		client.Conn.Close()
	}
	h.mu.Unlock()
	close(h.done)
}

func (h *Hub) removeClient(client *Client) {
	h.unregister <- client
}
