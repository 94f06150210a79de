package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/handlers"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/exports"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/operators"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
)

type RouterDeps struct {
	Logger     *slog.Logger
	DB         *gorm.DB
	JWTSecret  string
	Redis      *redis.Client
	RateLimit  middleware.RateLimitConfig
	Provider   payments.Provider
	Sessions   *sessions.Repo
	Bookings   *bookings.Service
	Reconciler *bookings.Reconciler
	Exports    *exports.Service
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	// ErrorHandler must wrap Recovery: a panic unwinds to Recovery, which
	// records the error, and ErrorHandler's tail still runs to write the 500.
	r.Use(
		middleware.RequestID(),
		middleware.Logger(d.Logger),
		middleware.Metrics(),
		middleware.ErrorHandler(d.Logger),
		middleware.Recovery(d.Logger),
	)

	health := handlers.NewHealthHandler(d.DB)
	r.GET("/healthz", health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// webhook endpoint is unauthenticated; the signature is the auth
	webhook := handlers.NewWebhookHandler(d.Provider, d.Reconciler)
	r.POST("/webhooks/stripe", webhook.HandleStripe)

	resolver := operators.NewResolver(d.DB)
	api := r.Group("/api/v1")
	api.Use(
		middleware.RequireOperator(d.JWTSecret, resolver),
		middleware.RateLimit(d.RateLimit, d.Redis),
	)

	me := handlers.NewMeHandler()
	api.GET("/me", me.Show)

	vessels := handlers.NewVesselHandler(d.Sessions)
	api.POST("/vessels", vessels.Create)
	api.GET("/vessels", vessels.List)

	sess := handlers.NewSessionHandler(d.Sessions, d.Bookings.Repo(), d.Exports)
	api.POST("/sessions", sess.Create)
	api.GET("/sessions", sess.List)
	api.GET("/sessions/:id", sess.Show)
	api.POST("/sessions/:id/cancel", sess.Cancel)
	api.GET("/sessions/:id/availability", sess.Availability)
	api.POST("/sessions/:id/manifest", sess.Manifest)

	book := handlers.NewBookingHandler(d.Bookings)
	api.POST("/bookings", book.Create)
	api.GET("/bookings", book.List)
	api.GET("/bookings/:id", book.Show)
	api.POST("/bookings/:id/assign-session", book.AssignSession)
	api.POST("/bookings/:id/approve", book.Approve)
	api.POST("/bookings/:id/reject", book.Reject)
	api.POST("/bookings/:id/confirm", book.Confirm)

	return r
}
