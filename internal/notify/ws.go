package notify

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 5 * time.Second
	maxInboundSize = 512
	outboxSize     = 32
)

var (
	errOutboxFull = errors.New("notify: connection outbox is full")
	errConnClosed = errors.New("notify: connection is closed")
)

// TokenResolver turns the token query parameter into a principal.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

// frameWriter is the part of *websocket.Conn the write pump uses.
type frameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// wsConn adapts a websocket to Conn. Send only queues the payload, the
// socket is written by writePump alone.
type wsConn struct {
	ws        frameWriter
	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWSConn(ws frameWriter, size int) *wsConn {
	c := &wsConn{
		ws:     ws,
		outbox: make(chan []byte, size),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

// Send never waits for the network. A client that cannot keep up fills its
// outbox and gets errOutboxFull.
func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.outbox <- payload:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errOutboxFull
	}
}

func (c *wsConn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.outbox:
			if err := c.write(payload); err != nil {
				// закрытый сокет завершит и цикл чтения в Notifications
				_ = c.Close()
				return
			}
		}
	}
}

func (c *wsConn) write(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// WSHandler serves GET /ws/notifications?token=...
type WSHandler struct {
	dispatcher *Dispatcher
	resolver   TokenResolver
	upgrader   websocket.Upgrader
	log        *logrus.Logger
}

// NewWSHandler accepts the origins in allowedOrigins; an empty list accepts any.
func NewWSHandler(d *Dispatcher, resolver TokenResolver, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	h := &WSHandler{dispatcher: d, resolver: resolver, log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Notifications godoc
// @Summary Subscribe to task notifications
// @Tags notifications
// @Param token query string true "JWT access token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Router /ws/notifications [get]
func (h *WSHandler) Notifications(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	principal, err := h.resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		kind := apperror.KindOf(err)
		c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": apperror.PublicMessage(err)})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	ws.SetReadLimit(maxInboundSize)

	conn := newWSConn(ws, outboxSize)
	h.dispatcher.Connect(principal.UserID, conn)
	h.log.WithField("user_id", principal.UserID).Info("✅ WebSocket connected")

	defer func() {
		h.dispatcher.Disconnect(principal.UserID, conn)
		_ = conn.Close()
		h.log.WithField("user_id", principal.UserID).Info("❌ WebSocket disconnected")
	}()

	// Входящие сообщения игнорируются, чтение нужно только для обнаружения закрытия
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
