package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/middleware"
	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/pkg/response"
)

type liveServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, claims *models.JWTClaims) error
}

// RealtimeHandler upgrades requests to the live notification channel.
type RealtimeHandler struct {
	server liveServer
	auth   middleware.Authenticator
	logger *zap.Logger
}

// NewRealtimeHandler builds a new handler.
func NewRealtimeHandler(server liveServer, auth middleware.Authenticator, logger *zap.Logger) *RealtimeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RealtimeHandler{server: server, auth: auth, logger: logger}
}

// Connect godoc
// @Summary Open the live notification channel
// @Description Websocket upgrade. Send join-user-room or join-operator-room to subscribe.
// @Tags Realtime
// @Param token query string false "Access token"
// @Success 101
// @Failure 401 {object} response.Envelope
// @Router /ws [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.GetHeader("Authorization"))
	}

	var claims *models.JWTClaims
	if token != "" {
		var err error
		claims, err = h.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}
	}

	if err := h.server.ServeWS(c.Writer, c.Request, claims); err != nil {
		// The upgrader has already answered the client.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}
