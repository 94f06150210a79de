package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
)

type checkoutObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object checkoutObject `json:"object"`
	} `json:"data"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/webhooks/stripe", "Webhook URL")
	secret := flag.String("secret", os.Getenv("STRIPE_WEBHOOK_SECRET"), "Webhook signing secret")
	eventID := flag.String("event-id", "evt_"+uuid.NewString(), "Event ID")
	eventType := flag.String("type", "checkout.session.completed", "Event type")
	checkoutID := flag.String("checkout-id", "cs_test_"+uuid.NewString(), "Checkout session ID")
	bookingID := flag.String("booking-id", "", "Booking ID to carry in metadata")
	amount := flag.Int64("amount", 13466, "Amount in charge minor units")
	currency := flag.String("currency", "usd", "Charge currency")
	skewSecs := flag.Int64("skew", 0, "Signature timestamp skew in seconds (to test tolerance)")
	dryRun := flag.Bool("dry-run", false, "Only print signature header, don't send")

	flag.Parse()

	if *secret == "" {
		fmt.Fprintf(os.Stderr, "Error: secret not provided and STRIPE_WEBHOOK_SECRET not set\n")
		os.Exit(1)
	}

	payload := webhookPayload{
		ID:   *eventID,
		Type: *eventType,
	}
	payload.Data.Object = checkoutObject{
		ID:            *checkoutID,
		PaymentIntent: "pi_" + uuid.NewString(),
		AmountTotal:   *amount,
		Currency:      *currency,
	}
	if *bookingID != "" {
		payload.Data.Object.Metadata = map[string]string{"booking_id": *bookingID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	ts := time.Now().Unix() + *skewSecs
	sigHeader := fmt.Sprintf("t=%d,v1=%s", ts, payments.ComputeSignature(*secret, ts, body))

	fmt.Printf("Stripe-Signature: %s\n", sigHeader)
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sigHeader)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
