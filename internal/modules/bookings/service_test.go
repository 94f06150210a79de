package bookings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/notify"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&sessions.Vessel{}, &sessions.DiveSession{},
		&Booking{}, &payments.PaymentEvent{}, &notify.NotificationLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// recorder is a synchronous Dispatcher so tests can assert on
// notifications without racing a goroutine.
type recorder struct {
	events []notify.Event
}

func (r *recorder) DispatchAsync(ev notify.Event) { r.events = append(r.events, ev) }

type fixture struct {
	db       *gorm.DB
	svc      *Service
	gateway  *payments.Mock
	notified *recorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	gw := payments.NewMock()
	rec := &recorder{}
	svc := NewService(db, sessions.NewRepo(db), gw, rec, nil, ServiceOptions{
		HoldWindow:         48 * time.Hour,
		CheckoutSuccessURL: "https://app.test/pay/success",
		CheckoutCancelURL:  "https://app.test/pay/cancel",
		Fx:                 payments.FxConfig{ChargeCurrency: "USD", RateJodToUsd: 1.41, Source: "static_config"},
	})
	f := &fixture{db: db, svc: svc, gateway: gw, notified: rec, now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) seedVessel(t *testing.T, operatorID string, capacity int) sessions.Vessel {
	t.Helper()
	v := sessions.Vessel{ID: uuid.NewString(), OperatorID: operatorID, Name: "Reef Runner", MaxCapacity: capacity, CreatedAt: f.now}
	if err := f.db.Create(&v).Error; err != nil {
		t.Fatalf("seed vessel: %v", err)
	}
	return v
}

func (f *fixture) seedSession(t *testing.T, operatorID string, vesselID *string, price, currency string) sessions.DiveSession {
	t.Helper()
	s := sessions.DiveSession{
		ID:            uuid.NewString(),
		OperatorID:    operatorID,
		DiveDatetime:  f.now.Add(72 * time.Hour),
		Site:          "Japanese Garden",
		VesselID:      vesselID,
		PricePerDiver: price,
		Currency:      currency,
		CreatedAt:     f.now,
		UpdatedAt:     f.now,
	}
	if err := f.db.Create(&s).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

func (f *fixture) seedBooking(t *testing.T, b Booking) Booking {
	t.Helper()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.BookingStatus == "" {
		b.BookingStatus = StatusPending
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = PayUnpaid
	}
	if b.GuestName == "" {
		b.GuestName = "Lena Haddad"
	}
	if b.Headcount == 0 {
		b.Headcount = 1
	}
	b.CreatedAt = f.now
	b.UpdatedAt = f.now
	if err := f.db.Create(&b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	return b
}

func TestCreate_TakesPricingSnapshot(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	sess := f.seedSession(t, op, nil, "95.5", "JOD")

	b, err := f.svc.Create(context.Background(), CreateInput{
		OperatorID: op,
		SessionID:  &sess.ID,
		GuestName:  "Omar Nasser",
		Headcount:  2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.PaymentCurrency == nil || *b.PaymentCurrency != "JOD" {
		t.Fatalf("snapshot currency = %v, want JOD", b.PaymentCurrency)
	}
	// 95.5 JOD * 2 divers at exponent 3
	if b.PaymentAmountMinor == nil || *b.PaymentAmountMinor != 191000 {
		t.Fatalf("snapshot amount = %v, want 191000", b.PaymentAmountMinor)
	}
}

func TestReject_IdempotentSingleNotification(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	b := f.seedBooking(t, Booking{OperatorID: op})

	res, err := f.svc.Reject(context.Background(), op, b.ID)
	if err != nil {
		t.Fatalf("first reject: %v", err)
	}
	if res.Action != ActionRejected {
		t.Fatalf("first action = %q, want %q", res.Action, ActionRejected)
	}

	res, err = f.svc.Reject(context.Background(), op, b.ID)
	if err != nil {
		t.Fatalf("second reject: %v", err)
	}
	if res.Action != ActionNoopAlreadyCancelled {
		t.Fatalf("second action = %q, want %q", res.Action, ActionNoopAlreadyCancelled)
	}

	var got Booking
	if err := f.db.First(&got, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.BookingStatus != StatusCancelled {
		t.Fatalf("status = %q, want cancelled", got.BookingStatus)
	}
	if len(f.notified.events) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(f.notified.events))
	}
	if f.notified.events[0].Type != notify.EventBookingCancelled {
		t.Fatalf("notification type = %q", f.notified.events[0].Type)
	}
}

func TestApprove_SnapshotSurvivesRegeneration(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	sess := f.seedSession(t, op, nil, "95.5", "JOD")

	b, err := f.svc.Create(context.Background(), CreateInput{
		OperatorID: op, SessionID: &sess.ID, GuestName: "Omar Nasser", Headcount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Approve(context.Background(), op, b.ID, false); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// operator repricing the session must not touch the quoted amount
	if err := f.db.Model(&sessions.DiveSession{}).Where("id = ?", sess.ID).
		Update("price_per_diver", "150").Error; err != nil {
		t.Fatalf("reprice session: %v", err)
	}

	res, err := f.svc.Approve(context.Background(), op, b.ID, true)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if res.Action != ActionPaymentLinkRegenerated {
		t.Fatalf("action = %q, want %q", res.Action, ActionPaymentLinkRegenerated)
	}
	if *res.Booking.PaymentAmountMinor != 95500 {
		t.Fatalf("snapshot amount = %d, want 95500", *res.Booking.PaymentAmountMinor)
	}
	if f.gateway.CreateCalls() != 2 {
		t.Fatalf("gateway calls = %d, want 2", f.gateway.CreateCalls())
	}
	// both checkouts were charged from the snapshot: 95.5 JOD * 1.41 in cents
	for i, call := range f.gateway.Created {
		if call.AmountMinor != 13466 || call.Currency != "USD" {
			t.Fatalf("call %d charged %d %s, want 13466 USD", i, call.AmountMinor, call.Currency)
		}
	}
}

func TestApprove_ReusesLiveCheckoutLink(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	sess := f.seedSession(t, op, nil, "40", "USD")
	b, err := f.svc.Create(context.Background(), CreateInput{
		OperatorID: op, SessionID: &sess.ID, GuestName: "Omar Nasser", Headcount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.Approve(context.Background(), op, b.ID, false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if first.Action != ActionCheckoutCreated {
		t.Fatalf("action = %q", first.Action)
	}

	second, err := f.svc.Approve(context.Background(), op, b.ID, false)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if second.Action != ActionCheckoutReused {
		t.Fatalf("action = %q, want %q", second.Action, ActionCheckoutReused)
	}
	if second.CheckoutURL != first.CheckoutURL {
		t.Fatalf("reused URL %q differs from %q", second.CheckoutURL, first.CheckoutURL)
	}
	if f.gateway.CreateCalls() != 1 {
		t.Fatalf("gateway calls = %d, want 1", f.gateway.CreateCalls())
	}
}

func TestApprove_PaidUnderReviewRefusesNewLink(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	sess := f.seedSession(t, op, nil, "40", "USD")

	// paid after the hold lapsed: pending, collected, awaiting review
	curr := "USD"
	amount := int64(4000)
	reason := ReasonLatePaymentHoldExpired
	paidAt := f.now.Add(-time.Hour)
	b := f.seedBooking(t, Booking{
		OperatorID: op, SessionID: &sess.ID, Headcount: 1,
		PaymentStatus:        PayPaid,
		PaymentCurrency:      &curr,
		PaymentAmountMinor:   &amount,
		ManualReviewRequired: true,
		ManualReviewReason:   &reason,
		PaidAt:               &paidAt,
	})

	_, err := f.svc.Approve(context.Background(), op, b.ID, false)
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Conflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if f.gateway.CreateCalls() != 0 {
		t.Fatalf("gateway called %d times for collected money", f.gateway.CreateCalls())
	}
}

func TestApprove_HoldNotShortenedByReApproval(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	sess := f.seedSession(t, op, nil, "40", "USD")
	b, err := f.svc.Create(context.Background(), CreateInput{
		OperatorID: op, SessionID: &sess.ID, GuestName: "Omar Nasser", Headcount: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.Approve(context.Background(), op, b.ID, false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	firstExpiry := *first.Booking.HoldExpiresAt

	f.now = f.now.Add(2 * time.Hour)
	res, err := f.svc.Approve(context.Background(), op, b.ID, true)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !res.Booking.HoldExpiresAt.Equal(firstExpiry) {
		t.Fatalf("hold moved from %v to %v while still active", firstExpiry, *res.Booking.HoldExpiresAt)
	}

	// once expired, a regenerated link re-arms the window
	f.now = firstExpiry.Add(time.Minute)
	res, err = f.svc.Approve(context.Background(), op, b.ID, true)
	if err != nil {
		t.Fatalf("regenerate after expiry: %v", err)
	}
	want := f.now.Add(48 * time.Hour)
	if !res.Booking.HoldExpiresAt.Equal(want) {
		t.Fatalf("re-armed hold = %v, want %v", *res.Booking.HoldExpiresAt, want)
	}
}

func TestApprove_OverCapacityRejectedWithoutMutation(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	v := f.seedVessel(t, op, 18)
	sess := f.seedSession(t, op, &v.ID, "40", "USD")

	hold := f.now.Add(24 * time.Hour)
	f.seedBooking(t, Booking{OperatorID: op, SessionID: &sess.ID, Headcount: 16, BookingStatus: StatusConfirmed, PaymentStatus: PayPaid})
	curr := "USD"
	amount := int64(16000)
	target := f.seedBooking(t, Booking{
		OperatorID: op, SessionID: &sess.ID, Headcount: 4,
		PaymentCurrency: &curr, PaymentAmountMinor: &amount,
		HoldExpiresAt: &hold,
	})

	_, err := f.svc.Approve(context.Background(), op, target.ID, false)
	if err == nil {
		t.Fatal("expected over-capacity rejection")
	}
	ae, ok := apperr.As(err)
	if !ok || ae.Kind != apperr.Conflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if ae.Fields["max_capacity"] != "18" || ae.Fields["consumed"] != "16" || ae.Fields["requested"] != "4" {
		t.Fatalf("capacity fields = %v", ae.Fields)
	}

	var got Booking
	if err := f.db.First(&got, "id = ?", target.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.StripeCheckoutSessionID != nil || got.BookingStatus != StatusPending {
		t.Fatal("rejected approval mutated the booking")
	}
	if f.gateway.CreateCalls() != 0 {
		t.Fatalf("gateway called %d times on a rejected approval", f.gateway.CreateCalls())
	}
}

func TestApprove_ExpiredPendingHoldFreesCapacity(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	v := f.seedVessel(t, op, 18)
	sess := f.seedSession(t, op, &v.ID, "40", "USD")

	expired := f.now.Add(-time.Hour)
	f.seedBooking(t, Booking{OperatorID: op, SessionID: &sess.ID, Headcount: 16, HoldExpiresAt: &expired})

	curr := "USD"
	amount := int64(16000)
	target := f.seedBooking(t, Booking{
		OperatorID: op, SessionID: &sess.ID, Headcount: 4,
		PaymentCurrency: &curr, PaymentAmountMinor: &amount,
	})

	res, err := f.svc.Approve(context.Background(), op, target.ID, false)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Action != ActionCheckoutCreated {
		t.Fatalf("action = %q", res.Action)
	}
}

func TestTenantIsolation_CrossOperatorIsNotFound(t *testing.T) {
	f := newFixture(t)
	opA := uuid.NewString()
	opB := uuid.NewString()
	b := f.seedBooking(t, Booking{OperatorID: opA})

	if _, err := f.svc.Get(context.Background(), opB, b.ID); apperr.HTTPStatus(err) != 404 {
		t.Fatalf("cross-tenant get = %v, want not_found", err)
	}
	if _, err := f.svc.Reject(context.Background(), opB, b.ID); apperr.HTTPStatus(err) != 404 {
		t.Fatalf("cross-tenant reject = %v, want not_found", err)
	}
	if _, err := f.svc.Approve(context.Background(), opB, b.ID, false); apperr.HTTPStatus(err) != 404 {
		t.Fatalf("cross-tenant approve = %v, want not_found", err)
	}

	var got Booking
	if err := f.db.First(&got, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.BookingStatus != StatusPending {
		t.Fatal("cross-tenant call mutated the booking")
	}
}

func TestConfirmAfterReview_ClearsFlag(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	reason := ReasonLatePaymentHoldExpired
	b := f.seedBooking(t, Booking{
		OperatorID:           op,
		PaymentStatus:        PayPaid,
		ManualReviewRequired: true,
		ManualReviewReason:   &reason,
	})

	res, err := f.svc.ConfirmAfterReview(context.Background(), op, b.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Action != ActionConfirmedAfterReview {
		t.Fatalf("action = %q", res.Action)
	}

	var got Booking
	if err := f.db.First(&got, "id = ?", b.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.BookingStatus != StatusConfirmed || got.ManualReviewRequired || got.ManualReviewReason != nil {
		t.Fatalf("booking after confirm = %+v", got)
	}
	if UIStatus(&got, f.now) != UIPaidConfirmed {
		t.Fatalf("ui status = %q, want confirmed", UIStatus(&got, f.now))
	}
}

func TestConfirmAfterReview_RefusesUnpaid(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	b := f.seedBooking(t, Booking{OperatorID: op, ManualReviewRequired: true})

	_, err := f.svc.ConfirmAfterReview(context.Background(), op, b.ID)
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Conflict {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestAssignSession_SnapshotOnce(t *testing.T) {
	f := newFixture(t)
	op := uuid.NewString()
	first := f.seedSession(t, op, nil, "95.5", "JOD")
	second := f.seedSession(t, op, nil, "120", "JOD")

	b, err := f.svc.Create(context.Background(), CreateInput{OperatorID: op, GuestName: "Omar Nasser", Headcount: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.HasPricingSnapshot() {
		t.Fatal("session-less booking should have no snapshot")
	}

	b, err = f.svc.AssignSession(context.Background(), op, b.ID, first.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if b.PaymentAmountMinor == nil || *b.PaymentAmountMinor != 95500 {
		t.Fatalf("snapshot = %v, want 95500", b.PaymentAmountMinor)
	}

	// moving to another session keeps the already-quoted price
	b, err = f.svc.AssignSession(context.Background(), op, b.ID, second.ID)
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if *b.PaymentAmountMinor != 95500 {
		t.Fatalf("snapshot changed on reassign: %d", *b.PaymentAmountMinor)
	}
	if b.SessionID == nil || *b.SessionID != second.ID {
		t.Fatalf("session not reassigned")
	}
}

func TestCreate_UniquePhoneToggle(t *testing.T) {
	f := newFixture(t)
	f.svc.enforceUniquePhone = true
	op := uuid.NewString()
	phone := "+962790000001"

	if _, err := f.svc.Create(context.Background(), CreateInput{OperatorID: op, GuestName: "A", GuestPhone: &phone, Headcount: 1}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(context.Background(), CreateInput{OperatorID: op, GuestName: "B", GuestPhone: &phone, Headcount: 1})
	if ae, ok := apperr.As(err); !ok || ae.Kind != apperr.Conflict {
		t.Fatalf("duplicate phone error = %v, want conflict", err)
	}

	// a cancelled booking releases the phone
	var existing Booking
	if err := f.db.First(&existing, "operator_id = ?", op).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := f.svc.Reject(context.Background(), op, existing.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), CreateInput{OperatorID: op, GuestName: "B", GuestPhone: &phone, Headcount: 1}); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}
