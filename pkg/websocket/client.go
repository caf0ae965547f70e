package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"tiyeni/internal/models"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/maps"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	Session  *models.Session
	backend  *Backend
	logger   *logger.Logger
	pongWait time.Duration
	maxSubs  int

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu            sync.Mutex
	subscriptions map[string]func()
	geocode       *maps.Debouncer
}

func NewClient(hub *Hub, conn *websocket.Conn, session *models.Session, backend *Backend, config Config, log *logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		Session:       session,
		backend:       backend,
		logger:        log.WithUserID(session.UID),
		pongWait:      config.PongTimeout,
		maxSubs:       config.MaxSubscriptions,
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[string]func()),
		geocode:       maps.NewDebouncer(config.GeocodeDebounce),
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WithError(err).Debug("websocket read failed")
			}
			return
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker((c.pongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.close()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// close releases every subscription and tells writePump to send a close
// frame and drop the connection. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.geocode.Stop()

		c.mu.Lock()
		subs := c.subscriptions
		c.subscriptions = make(map[string]func())
		c.mu.Unlock()
		for _, unsubscribe := range subs {
			unsubscribe()
		}
	})
}

// push queues envelope, waiting while the buffer is full. A closed client
// drops it.
func (c *Client) push(envelope Envelope) {
	data := marshalEnvelope(envelope)
	select {
	case c.send <- data:
	case <-c.ctx.Done():
	}
}

func (c *Client) pushError(requestID string, err error) {
	body := &ErrorBody{Code: "INTERNAL_ERROR", Message: utils.ErrInternalServer}
	if appErr, ok := utils.AsAppError(err); ok {
		body = &ErrorBody{Code: string(appErr.Code), Message: appErr.Message}
	}
	c.push(Envelope{Type: "error", RequestID: requestID, Error: body, Timestamp: getCurrentTimestamp()})
}

func (c *Client) handleMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.pushError("", utils.NewValidationError("message is not valid JSON"))
		return
	}

	switch msg.Type {
	case "subscribe_trips":
		c.subscribe(msg, func() (func(id string), error) {
			watch, err := c.backend.Trips.WatchAvailableTrips(c.ctx, msg.RouteID)
			if err != nil {
				return nil, err
			}
			return forward(c, watch, "trips_snapshot"), nil
		})

	case "watch_trip":
		c.subscribe(msg, func() (func(id string), error) {
			watch, err := c.backend.Trips.WatchTrip(c.ctx, c.Session, msg.TripID)
			if err != nil {
				return nil, err
			}
			return forward(c, watch, "trip_snapshot"), nil
		})

	case "watch_bookings":
		c.subscribe(msg, func() (func(id string), error) {
			watch, err := c.backend.Bookings.WatchBookings(c.ctx, c.Session, msg.TripID)
			if err != nil {
				return nil, err
			}
			return forward(c, watch, "bookings_snapshot"), nil
		})

	case "unsubscribe":
		c.mu.Lock()
		unsubscribe, ok := c.subscriptions[msg.SubscriptionID]
		delete(c.subscriptions, msg.SubscriptionID)
		c.mu.Unlock()
		if !ok {
			c.pushError(msg.RequestID, utils.NewNotFoundError("subscription not found"))
			return
		}
		unsubscribe()
		c.push(Envelope{Type: "unsubscribed", RequestID: msg.RequestID, SubscriptionID: msg.SubscriptionID, Timestamp: getCurrentTimestamp()})

	case "geocode":
		c.geocode.Call(func() { c.searchPlaces(msg) })

	default:
		c.pushError(msg.RequestID, utils.NewValidationError("unknown message type"))
	}
}

// subscribe starts a watch via start and registers it under a new
// subscription id. start returns a function that begins forwarding once
// the id is known.
func (c *Client) subscribe(msg Message, start func() (func(id string), error)) {
	c.mu.Lock()
	full := c.maxSubs > 0 && len(c.subscriptions) >= c.maxSubs
	c.mu.Unlock()
	if full {
		c.pushError(msg.RequestID, utils.NewValidationError("too many subscriptions"))
		return
	}

	run, err := start()
	if err != nil {
		c.pushError(msg.RequestID, err)
		return
	}

	id := uuid.NewString()
	c.push(Envelope{Type: "subscribed", RequestID: msg.RequestID, SubscriptionID: id, Timestamp: getCurrentTimestamp()})
	run(id)
}

// forward relays every snapshot of watch to the client until the watch or
// the client closes.
func forward[T any](c *Client, watch *services.Watch[T], kind string) func(id string) {
	return func(id string) {
		c.mu.Lock()
		if c.ctx.Err() != nil {
			c.mu.Unlock()
			watch.Close()
			return
		}
		c.subscriptions[id] = watch.Close
		c.mu.Unlock()

		go func() {
			for snapshot := range watch.Updates() {
				c.push(Envelope{Type: kind, SubscriptionID: id, Data: snapshot, Timestamp: getCurrentTimestamp()})
			}
		}()
	}
}

func (c *Client) searchPlaces(msg Message) {
	if c.backend.Places == nil {
		c.pushError(msg.RequestID, utils.NewValidationError("place search is not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, writeWait)
	defer cancel()

	places, err := c.backend.Places.Search(ctx, msg.Text, msg.Limit)
	if err != nil {
		if c.ctx.Err() == nil {
			c.pushError(msg.RequestID, err)
		}
		return
	}
	c.push(Envelope{Type: "geocode_results", RequestID: msg.RequestID, Data: places, Timestamp: getCurrentTimestamp()})
}
