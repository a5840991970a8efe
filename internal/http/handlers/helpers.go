package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fairticket/ticketing-backend/internal/http/middleware"
	"github.com/fairticket/ticketing-backend/internal/http/response"
)

const msgInvalidBody = "Invalid request body"

var errNoUserInContext = errors.New("пользователь не найден в контексте")

// currentUserID извлекает userID, положенный Authenticate.
func currentUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, errNoUserInContext
	}

	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, errNoUserInContext
	}

	return userID, nil
}

// requireUserID отвечает 401, если маршрут не прошёл через Authenticate.
func requireUserID(c *gin.Context) (int64, bool) {
	userID, err := currentUserID(c)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized", "")
		return 0, false
	}
	return userID, true
}

// parseIDParam читает положительный числовой параметр пути.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// bindJSON разбирает тело запроса и отвечает 400 на невалидный JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, msgInvalidBody)
		return false
	}
	return true
}
