package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/fairticket/ticketing-backend/internal/config"
	"github.com/fairticket/ticketing-backend/internal/http/handlers"
	"github.com/fairticket/ticketing-backend/internal/http/middleware"
	"github.com/fairticket/ticketing-backend/internal/service"
)

// Dependencies: всё, что нужно для сборки маршрутов.
type Dependencies struct {
	Auth          *handlers.AuthHandler
	OTP           *handlers.OTPHandler
	Users         *handlers.UserHandler
	Notifications *handlers.NotificationHandler
	Wishlist      *handlers.WishlistHandler
	Organizations *handlers.OrganizationHandler
	Events        *handlers.EventHandler
	Media         *handlers.MediaHandler
	Health        *handlers.HealthHandler
	WS            *handlers.WSHandler

	Tokens      *service.TokenManager
	UserLookup  middleware.UserLookup
	GateLimiter *limiter.Limiter
	AuthLimiter *limiter.Limiter
}

func SetupRouter(cfg *config.Config, d Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", d.Health.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))
	r.GET("/ws", middleware.RateLimitMiddleware(d.GateLimiter), d.WS.Handle)

	// Публичные маршруты аутентификации со своим лимитом.
	public := r.Group("/")
	public.Use(middleware.RateLimitMiddleware(d.AuthLimiter))
	{
		public.POST("/otp/send-otp", d.OTP.SendOTP)
		public.POST("/auth/sign-up", d.Auth.SignUp)
		public.POST("/auth/log-in", d.Auth.Login)
		public.POST("/auth/google/log-in", d.Auth.GoogleLogin)
		public.POST("/auth/refresh-token", d.Auth.Refresh)
		public.POST("/auth/forgot-password", d.Auth.ForgotPassword)
		public.POST("/auth/reset-password", d.Auth.ResetPassword)
	}

	// Публичный каталог событий: общий лимит без токена.
	catalog := r.Group("/")
	catalog.Use(middleware.RateLimitMiddleware(d.GateLimiter))
	{
		catalog.GET("/get-event-by-id/:event_id", d.Events.Get)
		catalog.GET("/get-events-by-org-id/:org_id", d.Events.ListByOrg)
		catalog.GET("/get-events-by-search-query", d.Events.Search)
		catalog.GET("/get-upcoming-events", d.Events.Upcoming)
		catalog.GET("/get-all-events", d.Events.ListAll)
		catalog.GET("/get-recently-created-events", d.Events.ListRecent)
	}

	// Защищённые маршруты: сначала лимит, затем токен.
	protected := r.Group("/")
	protected.Use(middleware.RateLimitMiddleware(d.GateLimiter))
	protected.Use(middleware.Authenticate(d.Tokens, d.UserLookup))
	{
		protected.GET("/users", d.Users.Me)
		protected.PUT("/users/onboard", d.Users.Onboard)
		protected.PUT("/users/profile", d.Users.UpdateProfile)
		protected.PUT("/users/change-password", d.Users.ChangePassword)

		protected.POST("/create-notification", d.Notifications.Create)
		protected.GET("/get-notifications/:role", d.Notifications.List)
		protected.POST("/mark-notification-as-read/:notification_id", d.Notifications.MarkAsRead)
		protected.POST("/mark-all-notifications-as-read", d.Notifications.MarkAllAsRead)

		protected.POST("/create-organization", d.Organizations.Create)
		protected.GET("/get-vendor-organization", d.Organizations.First)
		protected.GET("/get-all-vendor-organizations", d.Organizations.List)
		protected.PUT("/update-organization/:orgId", d.Organizations.Update)
		protected.GET("/get-organization-by-id/:orgId", d.Organizations.Get)

		protected.POST("/create-event/:org_id", d.Events.Create)
		protected.PUT("/update-event/:event_id", d.Events.Update)
		protected.PUT("/mark-event-as-published/:event_id", d.Events.TogglePublished)
		protected.PUT("/mark-event-as-featured/:event_id", d.Events.ToggleFeatured)
		protected.GET("/get-all-user-events", d.Events.ListByUser)
		protected.GET("/filter-user-events", d.Events.Filter)
		protected.GET("/get-all-featured-events", d.Events.ListFeatured)

		protected.POST("/wishlist/add/:event_id", d.Wishlist.Toggle)
		protected.GET("/wishlist", d.Wishlist.Get)

		protected.POST("/file-upload", d.Media.Upload)
		protected.POST("/file-upload/multiple", d.Media.UploadMultiple)
	}

	return r
}
