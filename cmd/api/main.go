package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/config"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/database"
	apphttp "github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/logging"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/exports"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/notify"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/storage"
)

func main() {
	// .env is optional; prod uses real env vars
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Init("api", cfg.LogFile)

	db, err := database.Open(cfg.DBDSN)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	var provider payments.Provider
	if cfg.StripeSecretKey != "" {
		provider = payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using mock payment provider")
		provider = payments.NewMock()
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("amqp dial: %v", err)
		}
		defer conn.Close()
		ch, err := conn.Channel()
		if err != nil {
			log.Fatalf("amqp channel: %v", err)
		}
		notifier, err = notify.NewAMQPNotifier(ch)
		if err != nil {
			log.Fatalf("amqp notifier: %v", err)
		}
	}
	notifySvc := notify.NewService(db, notifier, logging.New("notify"))

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
	}

	store, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	logger.Info("storage ready", "driver", store.Driver)

	sessionRepo := sessions.NewRepo(db)
	bookingSvc := bookings.NewService(db, sessionRepo, provider, notifySvc, logging.New("bookings"), bookings.ServiceOptions{
		HoldWindow:         cfg.HoldWindow,
		EnforceUniquePhone: cfg.EnforceUniquePhone,
		CheckoutSuccessURL: cfg.CheckoutSuccessURL,
		CheckoutCancelURL:  cfg.CheckoutCancelURL,
		Fx: payments.FxConfig{
			ChargeCurrency: cfg.PlatformChargeCurrency,
			RateJodToUsd:   cfg.FxRateJodToUsd,
			Source:         cfg.FxRateSource,
		},
	})

	r := apphttp.NewRouter(apphttp.RouterDeps{
		Logger:    logger,
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: middleware.RateLimitConfig{
			Capacity:       cfg.RateLimitCapacity,
			RefillTokens:   cfg.RateLimitRefillTokens,
			RefillInterval: cfg.RateLimitRefillInterval,
			TTL:            10 * time.Minute,
			Prefix:         "rl",
		},
		Provider:   provider,
		Sessions:   sessionRepo,
		Bookings:   bookingSvc,
		Reconciler: bookings.NewReconciler(db, notifySvc, logging.New("webhook")),
		Exports:    exports.NewService(sessionRepo, bookingSvc.Repo(), store.Storage, logging.New("exports")),
	})

	logger.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
