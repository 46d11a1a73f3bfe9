package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/metrics"
	"github.com/choirhub/choir-api/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// adminOnlyNotices are not delivered to plain members.
var adminOnlyNotices = map[string]bool{
	service.NoticeAttendanceSaved:      true,
	service.NoticeAnnouncementInactive: true,
}

type feedClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	user domain.User
}

// FeedHandler is the live feed hub. It implements service.Notifier so that
// services can publish notices without knowing about websockets.
type FeedHandler struct {
	upgrader websocket.Upgrader

	clients      map[string]*feedClient
	clientsMutex sync.RWMutex
	broadcast    chan domain.FeedNotice
	register     chan *feedClient
	unregister   chan *feedClient
	done         chan struct{}

	now func() time.Time
}

// NewFeedHandler creates the hub. origins returns the allowed browser origins,
// it is read on every handshake.
func NewFeedHandler(origins func() []string) *FeedHandler {
	h := &FeedHandler{
		clients:    make(map[string]*feedClient),
		broadcast:  make(chan domain.FeedNotice, 64),
		register:   make(chan *feedClient),
		unregister: make(chan *feedClient),
		done:       make(chan struct{}),
		now:        time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), origins())
		},
	}

	return h
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Run owns client registration and fan-out until ctx is done.
func (h *FeedHandler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.clientsMutex.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.clientsMutex.Unlock()
			metrics.FeedClients.Set(0)
			return

		case client := <-h.register:
			h.clientsMutex.Lock()
			h.clients[client.id] = client
			metrics.FeedClients.Set(float64(len(h.clients)))
			h.clientsMutex.Unlock()

		case client := <-h.unregister:
			h.clientsMutex.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			metrics.FeedClients.Set(float64(len(h.clients)))
			h.clientsMutex.Unlock()

		case notice := <-h.broadcast:
			message, err := json.Marshal(notice)
			if err != nil {
				zap.L().Error("failed to encode feed notice", zap.String("kind", notice.Kind), zap.Error(err))
				continue
			}

			h.clientsMutex.Lock()
			for id, client := range h.clients {
				if notice.AdminOnly && !client.user.Role.IsAdminTier() {
					continue
				}
				select {
				case client.send <- message:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, id)
				}
			}
			metrics.FeedClients.Set(float64(len(h.clients)))
			h.clientsMutex.Unlock()
		}
	}
}

// Notify queues a notice for every connected client. Notices are dropped when
// the hub is saturated.
func (h *FeedHandler) Notify(kind string, payload any) {
	notice := domain.FeedNotice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		Timestamp: h.now().UTC(),
		AdminOnly: adminOnlyNotices[kind],
	}

	select {
	case h.broadcast <- notice:
	default:
		zap.L().Warn("feed saturated, dropping notice", zap.String("kind", kind))
	}
}

func (h *FeedHandler) ClientCount() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()

	return len(h.clients)
}

// HandleWebSocket godoc
// @Summary      Subscribe to the live feed
// @Description  Upgrades to a websocket that receives attendance, event and announcement notices. Browsers pass the token in the "token" query parameter.
// @Tags         feed
// @Param        token  query     string  false  "JWT when no Authorization header can be sent"
// @Success      101    {string}  string  "Switching Protocols"
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Router       /feed/ws [get]
// @Security BearerAuth
func (h *FeedHandler) HandleWebSocket(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		zap.L().Warn("websocket upgrade failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}

	client := &feedClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		user: user,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	zap.L().Debug("feed client connected", zap.String("client_id", client.id), zap.Uint("user_id", user.ID))

	go client.writePump()
	go client.readPump(h)
}

func (c *feedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only keeps the connection alive, the feed is server push.
func (c *feedClient) readPump(h *FeedHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("feed client closed unexpectedly", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}
