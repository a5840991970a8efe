package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/http/middleware"
	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/service"
	"github.com/fairticket/ticketing-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений.
type WSHandler struct {
	hub          *ws.Hub
	tokenManager *service.TokenManager
	users        middleware.UserLookup
	upgrader     websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер. Пустой allowedOrigins разрешает любой Origin.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, users middleware.UserLookup, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		hub:          hub,
		tokenManager: tokens,
		users:        users,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				_, all := allowed["*"]
				return ok || all
			},
		},
	}
}

// Handle обслуживает GET /ws?token=... Проверки те же, что в Authenticate.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Access token is required")
		return
	}

	claims, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Invalid access token")
		return
	}
	userID, err := claims.UserID()
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized", "Invalid access token")
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Fail(c, http.StatusUnauthorized, "Unauthorized: User not found", "")
			return
		}
		logger.Log.WithFields(logrus.Fields{"error": err.Error(), "user_id": userID}).Error("Failed to resolve token owner")
		response.Fail(c, http.StatusInternalServerError, response.InternalMessage, "")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.Log.WithFields(logrus.Fields{"error": err.Error(), "user_id": userID}).Warn("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(conn, h.hub, userID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
