package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// StreamHandler upgrades authenticated clients to a websocket and attaches
// them to their identity's notification channel
type StreamHandler struct {
	BaseHandler
	hub      *notification.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewStreamHandler creates a new StreamHandler.
// checkOrigin decides which Origin headers may upgrade. nil keeps the
// gorilla default: same-origin browsers and clients that send no Origin
// header (such as the Go sync adapter) are accepted, cross-origin
// browsers are rejected.
func NewStreamHandler(hub *notification.Hub, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Stream handles GET /api/v1/stream
// The identity comes from the validated token, never from the request.
func (h *StreamHandler) Stream(c *gin.Context) {
	identityID := middleware.GetIdentityID(c)
	if identityID == uuid.Nil {
		c.JSON(http.StatusUnauthorized,
			dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Authentication required"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Warn("websocket upgrade failed",
			zap.String("identity_id", identityID.String()),
			zap.Error(err),
		)
		return
	}

	client := notification.NewClient(h.hub, conn, identityID, h.logger)
	if err := h.hub.Register(c.Request.Context(), client); err != nil {
		h.logger.Warn("failed to register stream client",
			zap.String("identity_id", identityID.String()),
			zap.Error(err),
		)
		conn.Close()
		return
	}

	client.Run()
}
