package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/database"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/notify"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/operators"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&operators.Operator{},
		&sessions.Vessel{},
		&sessions.DiveSession{},
		&bookings.Booking{},
		&payments.PaymentEvent{},
		&notify.NotificationLog{},
	); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	log.Println("✓ all tables migrated successfully")
}
