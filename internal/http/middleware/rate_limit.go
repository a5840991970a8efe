package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/fairticket/ticketing-backend/internal/http/response"
	"github.com/fairticket/ticketing-backend/internal/logger"
)

const msgTooManyRequests = "Too many requests"

// NewLimiterStore возвращает хранилище счётчиков: Redis, если клиент задан, иначе память процесса.
func NewLimiterStore(client *redis.Client, prefix string) (limiter.Store, error) {
	if client == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: time.Minute,
		}), nil
	}
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
}

// NewLimiter создаёт лимитер с фиксированным окном.
// По умолчанию: 100 запросов за 15 минут с одного клиента.
func NewLimiter(store limiter.Store, limit int64, period time.Duration) *limiter.Limiter {
	if limit <= 0 {
		limit = 100
	}
	if period <= 0 {
		period = 15 * time.Minute
	}
	return limiter.New(store, limiter.Rate{Period: period, Limit: limit})
}

// RateLimitMiddleware ограничивает количество запросов по ClientKey.
func RateLimitMiddleware(instance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientKey(c)
		lctx, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			logger.Log.WithFields(logrus.Fields{
				"error": err.Error(),
				"key":   key,
			}).Error("Rate limiter store failed")
			response.AbortFail(c, http.StatusInternalServerError, response.InternalMessage, "")
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.JSON(c, http.StatusTooManyRequests, response.Envelope{
				Message:    msgTooManyRequests,
				Error:      msgTooManyRequests,
				RetryAfter: &retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
