package payments

import "context"

// CheckoutSession is the gateway's hosted payment page for one booking.
type CheckoutSession struct {
	ID     string
	URL    string
	Status string // open|complete|expired
}

type CreateCheckoutInput struct {
	AmountMinor int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// Event is a verified webhook event. Raw keeps the exact bytes for the
// audit trail.
type Event struct {
	ID                string
	Type              string // checkout.session.completed, ...
	CheckoutSessionID string
	PaymentIntentID   string
	AmountMinor       int64
	Currency          string
	Metadata          map[string]string
	Raw               []byte
}

// Provider is the narrow gateway capability the core depends on. Any
// gateway offering hosted checkout plus signed webhooks fits.
type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)

	// VerifyWebhook checks the signature over the exact raw bytes and
	// parses the event. Invalid signature => error, nothing processed.
	VerifyWebhook(rawBody []byte, signatureHeader string) (Event, error)
}
