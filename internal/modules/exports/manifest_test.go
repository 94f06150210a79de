package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/storage"
)

type memStore struct {
	key  string
	body []byte
}

func (m *memStore) Put(ctx context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.PutResult{}, err
	}
	m.key = in.Filename
	m.body = b
	return storage.PutResult{Key: in.Filename, URL: "https://exports.test/" + in.Filename}, nil
}

func (m *memStore) Delete(ctx context.Context, key string) error { return nil }

func TestSessionManifest(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&sessions.DiveSession{}, &bookings.Booking{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	op := uuid.NewString()
	sess := sessions.DiveSession{
		ID: uuid.NewString(), OperatorID: op,
		DiveDatetime: time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC),
		Site:         "Cedar Pride", PricePerDiver: "95.5", Currency: "JOD",
		CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(&sess).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}

	curr := "JOD"
	amount := int64(95500)
	paid := bookings.Booking{
		ID: uuid.NewString(), OperatorID: op, SessionID: &sess.ID,
		GuestName: "Omar Nasser", Headcount: 2,
		BookingStatus: bookings.StatusConfirmed, PaymentStatus: bookings.PayPaid,
		PaymentCurrency: &curr, PaymentAmountMinor: &amount,
		CreatedAt: now, UpdatedAt: now,
	}
	cancelled := bookings.Booking{
		ID: uuid.NewString(), OperatorID: op, SessionID: &sess.ID,
		GuestName: "No Show", Headcount: 3,
		BookingStatus: bookings.StatusCancelled, PaymentStatus: bookings.PayUnpaid,
		CreatedAt: now, UpdatedAt: now,
	}
	for _, b := range []bookings.Booking{paid, cancelled} {
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}

	store := &memStore{}
	svc := NewService(sessions.NewRepo(db), bookings.NewRepo(db), store, nil)
	svc.now = func() time.Time { return now }

	res, err := svc.SessionManifest(context.Background(), op, sess.ID)
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if res.Rows != 1 || res.Divers != 2 {
		t.Fatalf("rows=%d divers=%d, want 1 row / 2 divers", res.Rows, res.Divers)
	}
	if !strings.HasPrefix(store.key, "manifest-2026-03-20-") {
		t.Fatalf("key = %q", store.key)
	}

	records, err := csv.NewReader(bytes.NewReader(store.body)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("csv rows = %d, want header + 1", len(records))
	}
	row := records[1]
	if row[0] != "Omar Nasser" || row[1] != "2" || row[2] != "paid_confirmed" {
		t.Fatalf("row = %v", row)
	}
	if row[4] != "95.50" || row[5] != "JOD" {
		t.Fatalf("amount cols = %v %v", row[4], row[5])
	}

	// cross-tenant manifest is a not-found
	if _, err := svc.SessionManifest(context.Background(), uuid.NewString(), sess.ID); err == nil {
		t.Fatal("expected not_found for foreign operator")
	}
}
