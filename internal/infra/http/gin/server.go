package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homestay/internal/infra/config"
	"homestay/internal/infra/obs"
)

type QuoteHTTP interface {
	Quote(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
}

type HostBookingHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Complete(c *gin.Context)
}

type HostRoomHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	UpdateRates(c *gin.Context)
}

type HostCouponHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetStatus(c *gin.Context)
}

type HostLocationHTTP interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type HostSettingsHTTP interface {
	Get(c *gin.Context)
	Update(c *gin.Context)
}

type CouponHTTP interface {
	Validate(c *gin.Context)
}

type Handlers struct {
	Quote        QuoteHTTP
	Booking      BookingHTTP
	HostBooking  HostBookingHTTP
	HostRoom     HostRoomHTTP
	HostCoupon   HostCouponHTTP
	HostLocation HostLocationHTTP
	HostSettings HostSettingsHTTP
	Coupon       CouponHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine without binding it to an address.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if h.Quote != nil {
		api.POST("/quotes", h.Quote.Quote)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
	}
	if h.Coupon != nil {
		api.POST("/coupons/validate", h.Coupon.Validate)
	}

	host := api.Group("/host")
	if h.HostBooking != nil {
		bookings := host.Group("/bookings")
		bookings.GET("", h.HostBooking.List)
		bookings.GET("/:id", h.HostBooking.Get)
		bookings.POST("/:id/confirm", h.HostBooking.Confirm)
		bookings.POST("/:id/cancel", h.HostBooking.Cancel)
		bookings.POST("/:id/complete", h.HostBooking.Complete)
	}
	if h.HostRoom != nil {
		rooms := host.Group("/rooms")
		rooms.GET("", h.HostRoom.List)
		rooms.POST("", h.HostRoom.Create)
		rooms.GET("/:id", h.HostRoom.Get)
		rooms.PUT("/:id/rates", h.HostRoom.UpdateRates)
	}
	if h.HostCoupon != nil {
		coupons := host.Group("/coupons")
		coupons.GET("", h.HostCoupon.List)
		coupons.POST("", h.HostCoupon.Create)
		coupons.PUT("/:id", h.HostCoupon.Update)
		coupons.DELETE("/:id", h.HostCoupon.Delete)
		coupons.POST("/:id/status", h.HostCoupon.SetStatus)
	}
	if h.HostLocation != nil {
		locations := host.Group("/locations")
		locations.GET("", h.HostLocation.List)
		locations.POST("", h.HostLocation.Create)
		locations.PUT("/:id", h.HostLocation.Update)
		locations.DELETE("/:id", h.HostLocation.Delete)
	}
	if h.HostSettings != nil {
		host.GET("/settings", h.HostSettings.Get)
		host.PUT("/settings", h.HostSettings.Update)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", hostHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
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
