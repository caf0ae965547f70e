package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tiyeni/pkg/logger"
)

// Hub tracks live connections per user so a sign-out can close all of them.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

// Message is a client request.
type Message struct {
	Type           string `json:"type"`
	RequestID      string `json:"request_id,omitempty"`
	RouteID        string `json:"route_id,omitempty"`
	TripID         string `json:"trip_id,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Limit          int    `json:"limit,omitempty"`
}

// Envelope is everything the server pushes.
type Envelope struct {
	Type           string      `json:"type"`
	RequestID      string      `json:"request_id,omitempty"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Error          *ErrorBody  `json:"error,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run serves register and unregister requests until ctx ends, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	uid := client.Session.UID
	if h.clients[uid] == nil {
		h.clients[uid] = make(map[*Client]bool)
	}
	h.clients[uid][client] = true
	h.logger.WithUserID(uid).Debug("websocket client registered")

	client.push(Envelope{
		Type:      "welcome",
		Data:      map[string]string{"uid": uid},
		Timestamp: getCurrentTimestamp(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	uid := client.Session.UID
	if _, ok := h.clients[uid][client]; ok {
		delete(h.clients[uid], client)
		if len(h.clients[uid]) == 0 {
			delete(h.clients, uid)
		}
		h.logger.WithUserID(uid).Debug("websocket client unregistered")
	}
}

// DisconnectUser closes every connection of uid.
func (h *Hub) DisconnectUser(uid string) {
	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients[uid]))
	for client := range h.clients[uid] {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		client.close()
	}
}

// ClientCount reports open connections for uid.
func (h *Hub) ClientCount(uid string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[uid])
}

func (h *Hub) closeAll() {
	h.mutex.RLock()
	var clients []*Client
	for _, set := range h.clients {
		for client := range set {
			clients = append(clients, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		client.close()
	}
}

func marshalEnvelope(envelope Envelope) []byte {
	data, err := json.Marshal(envelope)
	if err != nil {
		data, _ = json.Marshal(Envelope{
			Type:      "error",
			RequestID: envelope.RequestID,
			Error:     &ErrorBody{Code: "INTERNAL_ERROR", Message: "failed to encode message"},
			Timestamp: envelope.Timestamp,
		})
	}
	return data
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
