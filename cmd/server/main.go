package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/config"
	"github.com/fairticket/ticketing-backend/internal/db"
	"github.com/fairticket/ticketing-backend/internal/goroutine"
	httpHandlers "github.com/fairticket/ticketing-backend/internal/http/handlers"
	"github.com/fairticket/ticketing-backend/internal/http/middleware"
	httpRouter "github.com/fairticket/ticketing-backend/internal/http/router"
	"github.com/fairticket/ticketing-backend/internal/logger"
	"github.com/fairticket/ticketing-backend/internal/mail"
	"github.com/fairticket/ticketing-backend/internal/observability"
	"github.com/fairticket/ticketing-backend/internal/repository"
	"github.com/fairticket/ticketing-backend/internal/service"
	"github.com/fairticket/ticketing-backend/internal/storage"
	"github.com/fairticket/ticketing-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.IsProduction() {
		logger.Init("info")
	} else {
		logger.Init("debug")
		logger.SetTextFormatter()
	}

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Log.WithError(err).Warn("main: Sentry не инициализирован")
	}
	defer observability.FlushSentry()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolOptions)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Redis нужен только для общего счётчика лимитера между инстансами.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatalf("main: некорректный REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Fatalf("main: Redis недоступен: %v", err)
		}
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Log.Warn("main: REDIS_URL не задан, лимиты считаются в памяти процесса")
	}

	gateStore, err := middleware.NewLimiterStore(redisClient, "ratelimit:gate")
	if err != nil {
		logger.Log.Fatalf("main: хранилище лимитера: %v", err)
	}
	authStore, err := middleware.NewLimiterStore(redisClient, "ratelimit:auth")
	if err != nil {
		logger.Log.Fatalf("main: хранилище лимитера: %v", err)
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
	} else {
		logger.Log.Warn("main: SENDGRID_API_KEY не задан, письма только пишутся в лог")
	}

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MediaPublicURL, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	otpRepo := repository.NewOTPRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	wishlistRepo := repository.NewWishlistRepository(dbConn)
	organizationRepo := repository.NewOrganizationRepository(dbConn)
	eventRepo := repository.NewEventRepository(dbConn)

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otpService := service.NewOTPService(otpRepo, mailer, service.OTPConfig{
		Min:                cfg.OTPMin,
		Max:                cfg.OTPMax,
		InvalidateAll:      cfg.OTPInvalidation == config.OTPInvalidateAll,
		SignupTemplateID:   cfg.SignupTemplateID,
		PasswordTemplateID: cfg.PasswordResetTemplate,
	})
	authService := service.NewAuthService(userRepo, otpService, tokenManager, service.AuthOptions{
		BcryptCost:            cfg.BcryptCost,
		RevokeSessionsOnReset: cfg.RevokeSessionsOnReset,
	})
	userService := service.NewUserService(userRepo, wishlistRepo, cfg.BcryptCost)
	notificationService := service.NewNotificationService(notificationRepo, hub)
	wishlistService := service.NewWishlistService(wishlistRepo, eventRepo)
	organizationService := service.NewOrganizationService(organizationRepo)
	eventService := service.NewEventService(eventRepo, organizationRepo)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Dependencies{
		Auth:          httpHandlers.NewAuthHandler(authService),
		OTP:           httpHandlers.NewOTPHandler(otpService),
		Users:         httpHandlers.NewUserHandler(userService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		Wishlist:      httpHandlers.NewWishlistHandler(wishlistService),
		Organizations: httpHandlers.NewOrganizationHandler(organizationService),
		Events:        httpHandlers.NewEventHandler(eventService),
		Media:         httpHandlers.NewMediaHandler(mediaStorage),
		Health:        httpHandlers.NewHealthHandler(dbConn),
		WS:            httpHandlers.NewWSHandler(hub, tokenManager, userRepo, cfg.AllowedOrigins),
		Tokens:        tokenManager,
		UserLookup:    userRepo,
		GateLimiter:   middleware.NewLimiter(gateStore, cfg.RateLimitLimit, cfg.RateLimitPeriod),
		AuthLimiter:   middleware.NewLimiter(authStore, cfg.AuthRateLimitLimit, cfg.AuthRateLimitPeriod),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.WithFields(logrus.Fields{
		"port": cfg.HTTPPort,
		"env":  cfg.Env,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
