package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayloop/internal/infra/config"
	"stayloop/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHandler
	Listing        ListingHandler
	Booking        BookingHandler
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/me", h.Auth.Me)
	api.PUT("/auth/profile", h.Auth.UpdateProfile)
	api.POST("/auth/become-host", h.Auth.BecomeHost)
	api.POST("/auth/favorites/:listingID", h.Auth.ToggleFavorite)
	api.GET("/auth/favorites", h.Auth.Favorites)

	api.GET("/listings", h.Listing.Search)
	api.POST("/listings", h.Listing.Create)
	api.GET("/listings/host/mine", h.Listing.Mine)
	api.GET("/listings/:id", h.Listing.Get)
	api.PUT("/listings/:id", h.Listing.Update)
	api.DELETE("/listings/:id", h.Listing.Delete)
	api.POST("/listings/:id/reviews", h.Listing.AddReview)
	api.GET("/listings/:id/similar", h.Listing.Similar)
	api.POST("/listings/:id/blocked-dates", h.Listing.BlockDates)
	api.POST("/listings/:id/photos", h.Listing.UploadPhotos)

	api.POST("/bookings", h.Booking.Create)
	api.GET("/bookings", h.Booking.ListMine)
	api.GET("/bookings/host", h.Booking.ListHost)
	api.GET("/bookings/:id", h.Booking.Get)
	api.PUT("/bookings/:id/status", h.Booking.UpdateStatus)
	api.POST("/bookings/:id/messages", h.Booking.AddMessage)
	api.POST("/bookings/:id/messages/read", h.Booking.MarkMessagesRead)

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
