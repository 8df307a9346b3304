package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pxy05/ownMi-websocket/internal/auth"
	"github.com/pxy05/ownMi-websocket/internal/focus"
	"github.com/pxy05/ownMi-websocket/internal/logger"
)

const operationTimeout = 10 * time.Second

// SessionAPI is the slice of the session service the transport needs.
type SessionAPI interface {
	Create(ctx context.Context, userID string, sessionType string, notes *string) (*focus.SessionRecord, error)
	Start(ctx context.Context, userID string) (*focus.SessionRecord, error)
	End(ctx context.Context, userID string) (*focus.SessionRecord, error)
	Heartbeat(ctx context.Context, userID string) error
	CheckActive(ctx context.Context, userID string) (bool, error)
}

// Handler authenticates WebSocket connections and translates their
// messages into session intents. It holds no session policy: every
// decision lives behind SessionAPI.
type Handler struct {
	sessions SessionAPI
	verifier auth.Verifier
	upgrader websocket.Upgrader
}

func NewHandler(sessions SessionAPI, verifier auth.Verifier) *Handler {
	return &Handler{
		sessions: sessions,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.serve)
}

func (h *Handler) serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	userID, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		logger.Warn("ws handshake rejected", map[string]any{
			"error": err.Error(),
		})
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("ws upgrade failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	logger.Info("ws connection opened", map[string]any{
		"user_id": userID,
	})

	h.readLoop(conn, userID)
}

func (h *Handler) readLoop(conn *websocket.Conn, userID string) {
	// connection close maps to an implicit end for this user
	defer func() {
		conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()

		if _, err := h.sessions.End(ctx, userID); err != nil {
			logger.Error("implicit end on close failed", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
		}

		logger.Info("ws connection closed", map[string]any{
			"user_id": userID,
		})
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(conn, userID, raw)
	}
}

func (h *Handler) dispatch(conn *websocket.Conn, userID string, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		logger.Warn("invalid ws message", map[string]any{
			"user_id": userID,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	// A failed operation sends no ack; success with or without data acks
	// the same way, so clients cannot distinguish "ended" from "discarded".
	switch msg.Type {
	case IntentCreate:
		if _, err := h.sessions.Create(ctx, userID, focus.DefaultSessionType, msg.Notes); err == nil {
			h.send(conn, AckCreated)
		}

	case IntentStart:
		if _, err := h.sessions.Start(ctx, userID); err == nil {
			h.send(conn, AckStarted)
		}

	case IntentEnd:
		if _, err := h.sessions.End(ctx, userID); err == nil {
			h.send(conn, AckEnded)
		}

	case IntentHeartbeat:
		_ = h.sessions.Heartbeat(ctx, userID)

	case IntentCheck:
		active, err := h.sessions.CheckActive(ctx, userID)
		if err != nil {
			return
		}
		if active {
			h.send(conn, AckExists)
		} else {
			h.send(conn, AckNotExists)
		}

	default:
		logger.Info("ignoring unknown ws intent", map[string]any{
			"type":    msg.Type,
			"user_id": userID,
		})
	}
}

func (h *Handler) send(conn *websocket.Conn, ackType string) {
	if err := conn.WriteJSON(serverMessage{Type: ackType}); err != nil {
		logger.Warn("ws write failed", map[string]any{
			"error": err.Error(),
		})
	}
}
