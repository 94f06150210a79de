package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testWebhookSecret = "whsec_test"

func testStripe(now time.Time) *Stripe {
	s := NewStripe("sk_test", testWebhookSecret)
	s.now = func() time.Time { return now }
	return s
}

func signedHeader(ts int64, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(testWebhookSecret, ts, body))
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_test_1",
				"payment_intent": "pi_test_1",
				"amount_total":   13466,
				"currency":       "usd",
				"metadata":       map[string]string{"booking_id": "bkg_1"},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestVerifyWebhook(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := testStripe(now)
	body := eventBody(t)

	ev, err := s.VerifyWebhook(body, signedHeader(now.Unix(), body))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.ID != "evt_test_1" || ev.Type != "checkout.session.completed" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.CheckoutSessionID != "cs_test_1" || ev.PaymentIntentID != "pi_test_1" {
		t.Fatalf("refs = %q %q", ev.CheckoutSessionID, ev.PaymentIntentID)
	}
	if ev.AmountMinor != 13466 || ev.Currency != "USD" {
		t.Fatalf("amount = %d %s", ev.AmountMinor, ev.Currency)
	}
	if ev.Metadata["booking_id"] != "bkg_1" {
		t.Fatalf("metadata = %v", ev.Metadata)
	}
}

func TestVerifyWebhook_Rejections(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := testStripe(now)
	body := eventBody(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage header", "nonsense"},
		{"wrong signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), "deadbeef")},
		{"stale timestamp", signedHeader(now.Add(-6*time.Minute).Unix(), body)},
		{"future timestamp", signedHeader(now.Add(6*time.Minute).Unix(), body)},
		{"tampered body", signedHeader(now.Unix(), []byte(`{"id":"evt_x"}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.VerifyWebhook(body, tt.header)
			if !errors.Is(err, ErrBadSignature) {
				t.Fatalf("err = %v, want ErrBadSignature", err)
			}
		})
	}
}

func TestVerifyWebhook_WithinTolerance(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	s := testStripe(now)
	body := eventBody(t)

	for _, skew := range []time.Duration{-4 * time.Minute, 4 * time.Minute} {
		if _, err := s.VerifyWebhook(body, signedHeader(now.Add(skew).Unix(), body)); err != nil {
			t.Fatalf("skew %v rejected: %v", skew, err)
		}
	}
}

func TestVerifyWebhook_NoSecretConfigured(t *testing.T) {
	s := NewStripe("sk_test", "")
	if _, err := s.VerifyWebhook([]byte("{}"), "t=1,v1=x"); !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("err = %v, want ErrGatewayNotConfigured", err)
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth, gotCurrency, gotAmount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotAuth = r.Header.Get("Authorization")
		gotCurrency = r.PostForm.Get("line_items[0][price_data][currency]")
		gotAmount = r.PostForm.Get("line_items[0][price_data][unit_amount]")

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id": "cs_live_1", "url": "https://checkout.stripe.com/pay/cs_live_1", "status": "open",
		})
	}))
	defer srv.Close()

	s := NewStripe("sk_test", testWebhookSecret)
	s.baseURL = srv.URL

	cs, err := s.CreateCheckoutSession(context.Background(), CreateCheckoutInput{
		AmountMinor: 13466,
		Currency:    "USD",
		Description: "Dive session",
		SuccessURL:  "https://app.test/ok",
		CancelURL:   "https://app.test/no",
		Metadata:    map[string]string{"booking_id": "bkg_1"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cs.ID != "cs_live_1" || cs.Status != "open" {
		t.Fatalf("session = %+v", cs)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotCurrency != "usd" || gotAmount != "13466" {
		t.Fatalf("form = currency %q amount %q", gotCurrency, gotAmount)
	}
}

func TestCreateCheckoutSession_NotConfigured(t *testing.T) {
	s := NewStripe("", "")
	if _, err := s.CreateCheckoutSession(context.Background(), CreateCheckoutInput{}); !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("err = %v, want ErrGatewayNotConfigured", err)
	}
}
