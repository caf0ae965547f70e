package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tiyeni/internal/middleware"
	"tiyeni/internal/models"
	"tiyeni/internal/services"
	"tiyeni/internal/utils"
	"tiyeni/pkg/logger"
	"tiyeni/pkg/maps"
)

// Authenticator resolves the handshake token and reports sign-outs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
	OnAuthStateChanged(uid string, fn func(*models.Session)) (unsubscribe func())
}

type TripFeed interface {
	WatchAvailableTrips(ctx context.Context, routeID string) (*services.Watch[[]*models.Trip], error)
	WatchTrip(ctx context.Context, session *models.Session, tripID string) (*services.Watch[*models.Trip], error)
}

type BookingFeed interface {
	WatchBookings(ctx context.Context, session *models.Session, tripID string) (*services.Watch[[]*models.Booking], error)
}

type PlaceSearch interface {
	Search(ctx context.Context, text string, limit int) ([]maps.Place, error)
}

// Backend is what a connection can subscribe to.
type Backend struct {
	Auth     Authenticator
	Trips    TripFeed
	Bookings BookingFeed
	Places   PlaceSearch
}

type Config struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PongTimeout      time.Duration
	MaxSubscriptions int
	GeocodeDebounce  time.Duration
	// AllowedOrigins empty or containing "*" accepts any origin.
	AllowedOrigins []string
}

type Handler struct {
	hub      *Hub
	backend  *Backend
	config   Config
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewHandler(hub *Hub, backend *Backend, config Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	if config.PongTimeout <= 0 {
		config.PongTimeout = 60 * time.Second
	}
	if config.GeocodeDebounce <= 0 {
		config.GeocodeDebounce = utils.GeocodeDebounce
	}

	return &Handler{
		hub:     hub,
		backend: backend,
		config:  config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
			HandshakeTimeout: config.HandshakeTimeout,
			CheckOrigin:      originChecker(config.AllowedOrigins),
		},
		logger: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		set[origin] = true
	}
	if len(set) == 0 || set["*"] {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// HandleWebSocket authenticates the handshake, upgrades it and serves the
// connection until either side closes or the user signs out.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	session, err := h.backend.Auth.Authenticate(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, session, h.backend, h.config, h.logger)
	stop := h.backend.Auth.OnAuthStateChanged(session.UID, func(current *models.Session) {
		if current == nil {
			h.hub.DisconnectUser(session.UID)
		}
	})
	if !h.hub.Register(client) {
		stop()
		client.close()
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
	go func() {
		<-client.ctx.Done()
		stop()
	}()
}
