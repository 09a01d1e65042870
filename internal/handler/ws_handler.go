package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tzkusman/live-storefront/internal/config"
	"github.com/tzkusman/live-storefront/internal/domain"
	"github.com/tzkusman/live-storefront/internal/hub"
	"github.com/tzkusman/live-storefront/internal/log"
	"github.com/tzkusman/live-storefront/internal/presence"
)

// WSHandler handles WebSocket connections for the presence channel.
type WSHandler struct {
	hub      *hub.Hub
	service  presence.Service
	cfg      config.PresenceConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WebSocket handler.
func NewWSHandler(h *hub.Hub, svc presence.Service, cfg config.PresenceConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// HandleWebSocket handles the WebSocket upgrade and connection lifecycle.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.cfg)
	h.hub.Register(client)

	l := log.Ctx(c.Request.Context())
	l.Debug().
		Str(log.FieldClientID, client.ID).
		Str(log.FieldChannel, h.cfg.Channel).
		Msg("websocket connection opened")

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.onClose)
}

func (h *WSHandler) handleMessage(c *hub.Client, message []byte) {
	ctx := context.Background()
	l := log.L()

	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		c.SendMessage(domain.NewErrorMessage("invalid message format"))
		return
	}

	switch base.Type {
	case domain.MsgTypeJoin:
		var msg domain.JoinMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.SendMessage(domain.NewErrorMessage("invalid join message"))
			return
		}
		if err := h.service.HandleJoin(ctx, c, msg.Token); err != nil {
			l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("join error")
		}

	case domain.MsgTypeCursor:
		var msg domain.CursorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.SendMessage(domain.NewErrorMessage("invalid cursor message"))
			return
		}
		if err := h.service.HandleCursor(ctx, c, &msg); err != nil {
			l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("cursor error")
		}

	case domain.MsgTypeLeave:
		if err := h.service.HandleLeave(ctx, c); err != nil {
			l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("leave error")
		}

	case domain.MsgTypePing:
		if err := h.service.HandleHeartbeat(ctx, c); err != nil {
			l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("heartbeat error")
		}

	default:
		c.SendMessage(domain.NewErrorMessage("unknown message type: " + base.Type))
	}
}

// onClose withdraws the participant when its connection drops, which is the
// implicit leave signal for everyone else.
func (h *WSHandler) onClose(c *hub.Client) {
	if err := h.service.HandleDisconnect(context.Background(), c); err != nil {
		l := log.L()
		l.Debug().Err(err).Str(log.FieldClientID, c.ID).Msg("disconnect error")
	}
}
