package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/observability"
	"github.com/fairticket/ticketing-backend/internal/pkg/apperror"
)

// InternalMessage: текст ответа для неожиданных ошибок.
const InternalMessage = "Internal server error"

// Envelope: единый формат ответа API. Токены и пользователь лежат на верхнем уровне рядом с data.
type Envelope struct {
	StatusCode   int         `json:"statusCode"`
	Status       bool        `json:"status"`
	Message      string      `json:"message"`
	Data         interface{} `json:"data"`
	Error        string      `json:"error,omitempty"`
	AccessToken  string      `json:"access_token,omitempty"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	User         interface{} `json:"user,omitempty"`
	IsNewUser    *bool       `json:"is_new_user,omitempty"`
	RetryAfter   *int64      `json:"retryAfter,omitempty"`
}

// JSON пишет конверт, проставляя statusCode и status по HTTP коду.
func JSON(c *gin.Context, code int, env Envelope) {
	env.StatusCode = code
	env.Status = code < http.StatusBadRequest
	c.JSON(code, env)
}

// Success отвечает 200 с данными.
func Success(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusOK, Envelope{Message: message, Data: data})
}

// Created отвечает 201 с данными.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, Envelope{Message: message, Data: data})
}

// Fail отвечает ошибкой с явным статусом. Пустой detail заменяется сообщением.
func Fail(c *gin.Context, code int, message, detail string) {
	if detail == "" {
		detail = message
	}
	JSON(c, code, Envelope{Message: message, Error: detail})
}

// AbortFail: Fail с прерыванием цепочки middleware.
func AbortFail(c *gin.Context, code int, message, detail string) {
	Fail(c, code, message, detail)
	c.Abort()
}

// BadRequest отвечает 400.
func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, message, "")
}

// Error переводит ошибку сервиса в ответ. Внутренние ошибки логируются и скрываются от клиента.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != apperror.ErrCodeInternal {
		Fail(c, appErr.HTTPStatus, appErr.Message, appErr.Detail)
		return
	}

	message := InternalMessage
	if appErr != nil && appErr.Message != "" {
		message = appErr.Message
	}

	logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Request error")
	observability.CaptureError(err, map[string]string{
		"path":   c.FullPath(),
		"method": c.Request.Method,
	})

	Fail(c, http.StatusInternalServerError, message, InternalMessage)
}
