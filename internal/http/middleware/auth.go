package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/models"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// ContextUserIDKey: ключ gin.Context с числовым id пользователя.
const ContextUserIDKey = "userID"

const (
	msgUnauthorized = "Unauthorized"
	msgUserNotFound = "Unauthorized: User not found"
)

// UserLookup ищет владельца токена.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate проверяет Bearer access токен и существование пользователя.
func Authenticate(tokens *service.TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, msgUnauthorized, "")
			return
		}

		claims, err := tokens.ParseAccess(raw)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, msgUnauthorized, "")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, msgUnauthorized, "")
			return
		}

		if _, err := users.GetByID(c.Request.Context(), userID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				response.AbortFail(c, http.StatusUnauthorized, msgUserNotFound, "")
				return
			}
			logger.Log.WithFields(logrus.Fields{
				"error":   err.Error(),
				"user_id": userID,
			}).Error("Failed to resolve token owner")
			response.AbortFail(c, http.StatusInternalServerError, response.InternalMessage, "")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return raw, raw != ""
}

// ClientKey возвращает ключ клиента для лимитера, то есть первое значение X-Forwarded-For либо "unknown".
func ClientKey(c *gin.Context) string {
	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded == "" {
		return "unknown"
	}
	first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
	if first == "" {
		return "unknown"
	}
	return first
}
