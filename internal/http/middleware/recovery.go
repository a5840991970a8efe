package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/observability"
)

// Recovery перехватывает панику в обработчике, отправляет её в Sentry и отвечает 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			stack := debug.Stack()

			logger.Log.WithFields(logrus.Fields{
				"panic":  rec,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"stack":  string(stack),
			}).Error("Panic recovered")
			observability.CapturePanic(rec, stack, map[string]string{
				"path":   c.FullPath(),
				"method": c.Request.Method,
			})

			if !c.Writer.Written() {
				response.Fail(c, http.StatusInternalServerError, response.InternalMessage, "")
			}
			c.Abort()
		}()

		c.Next()
	}
}
