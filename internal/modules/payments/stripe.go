package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	stripeAPIBase      = "https://api.stripe.com/v1"
	signatureTolerance = 5 * time.Minute
)

// Stripe talks to the hosted-checkout API over its form-encoded REST
// surface and verifies webhook signatures (t=...,v1=... HMAC-SHA256 over
// "<t>.<body>").
type Stripe struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client

	// now is swappable for signature-tolerance tests
	now func() time.Time
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	return &Stripe{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       stripeAPIBase,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		now:           time.Now,
	}
}

func (s *Stripe) Name() string { return "stripe" }

type stripeCheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentIntent string `json:"payment_intent"`
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (CheckoutSession, error) {
	if s.secretKey == "" {
		return CheckoutSession{}, ErrGatewayNotConfigured
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(in.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.Description)
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var out stripeCheckoutSession
	if err := s.do(ctx, http.MethodPost, "/checkout/sessions", form, &out); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{ID: out.ID, URL: out.URL, Status: out.Status}, nil
}

func (s *Stripe) RetrieveCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	if s.secretKey == "" {
		return CheckoutSession{}, ErrGatewayNotConfigured
	}

	var out stripeCheckoutSession
	if err := s.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{ID: out.ID, URL: out.URL, Status: out.Status}, nil
}

type stripeEventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			AmountTotal   int64             `json:"amount_total"`
			Currency      string            `json:"currency"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the signature header against the exact raw body.
// The header format is "t=<unix>,v1=<hex hmac>"; the signed payload is
// "<t>.<body>". Timestamps outside the tolerance window are rejected to
// blunt replay.
func (s *Stripe) VerifyWebhook(rawBody []byte, signatureHeader string) (Event, error) {
	if s.webhookSecret == "" {
		return Event{}, ErrGatewayNotConfigured
	}

	ts, sigs, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return Event{}, err
	}

	at := time.Unix(ts, 0)
	if d := s.now().Sub(at); d > signatureTolerance || d < -signatureTolerance {
		return Event{}, fmt.Errorf("%w: timestamp outside tolerance", ErrBadSignature)
	}

	expected := ComputeSignature(s.webhookSecret, ts, rawBody)
	ok := false
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, ErrBadSignature
	}

	var env stripeEventEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return Event{}, fmt.Errorf("%w: malformed event payload", ErrBadSignature)
	}
	if env.ID == "" || env.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event id or type", ErrBadSignature)
	}

	return Event{
		ID:                env.ID,
		Type:              env.Type,
		CheckoutSessionID: env.Data.Object.ID,
		PaymentIntentID:   env.Data.Object.PaymentIntent,
		AmountMinor:       env.Data.Object.AmountTotal,
		Currency:          strings.ToUpper(env.Data.Object.Currency),
		Metadata:          env.Data.Object.Metadata,
		Raw:               rawBody,
	}, nil
}

// ComputeSignature builds the hex HMAC for a timestamped payload. Exported
// for the mock-webhook tool.
func ComputeSignature(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (ts int64, v1 []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrBadSignature)
	}
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrBadSignature)
			}
		case "v1":
			v1 = append(v1, v)
		}
	}
	if ts == 0 || len(v1) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrBadSignature)
	}
	return ts, v1, nil
}

func (s *Stripe) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("stripe: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("stripe: %s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(raw), 300))
	}
	return json.Unmarshal(raw, out)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
