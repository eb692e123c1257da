package ginserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"villabook/internal/infra/config"
	"villabook/internal/infra/obs"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth     AuthMiddleware
	Bookings BookingHandler
	Host     HostBookingHandler
	Calendar CalendarHandler
	Health   obs.HealthHandlers
}

func NewServer(cfg config.Config, mw obs.Middleware, h Handlers) *http.Server {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(mw.RequestID())
	engine.Use(mw.LoggerMiddleware())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(h.Auth.Handle)

	engine.GET("/livez", h.Health.Livez)
	engine.GET("/readyz", h.Health.Readyz)

	v1 := engine.Group("/api/v1")
	{
		villas := v1.Group("/villas/:id")
		{
			villas.GET("/preview", h.Bookings.Preview)
			villas.GET("/calendar", h.Calendar.Get)
			villas.POST("/calendar/block", h.Calendar.Block)
			villas.POST("/calendar/unblock", h.Calendar.Unblock)
			villas.PUT("/calendar/overrides", h.Calendar.SetOverride)
			villas.DELETE("/calendar/overrides/:date", h.Calendar.RemoveOverride)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", h.Bookings.Create)
			bookings.GET("/:id", h.Bookings.Get)
			bookings.PATCH("/:id", h.Bookings.Modify)
			bookings.POST("/:id/cancel", h.Bookings.Cancel)
			bookings.POST("/:id/approve", h.Host.Approve)
			bookings.POST("/:id/reject", h.Host.Reject)
		}

		v1.GET("/me/bookings", h.Bookings.ListMine)
		v1.GET("/host/bookings", h.Host.List)
	}

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
