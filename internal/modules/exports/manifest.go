// Package exports generates operator-facing files from booking data. The
// only export today is the dive manifest: one CSV per session listing every
// non-cancelled party with payment state, suitable for printing at the dock.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/money"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/storage"
)

type Service struct {
	sessions *sessions.Repo
	bookings *bookings.Repo
	store    storage.Storage
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(sr *sessions.Repo, br *bookings.Repo, store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sessions: sr, bookings: br, store: store, logger: logger, now: time.Now}
}

type ManifestResult struct {
	SessionID string `json:"session_id"`
	Key       string `json:"key"`
	URL       string `json:"url"`
	Rows      int    `json:"rows"`
	Divers    int    `json:"divers"`
}

var manifestHeader = []string{
	"guest_name", "headcount", "status", "payment_status",
	"amount", "currency", "email", "phone",
}

// SessionManifest builds and stores the manifest CSV. Cancelled bookings
// are excluded; pending ones appear so the crew knows who might still show.
func (s *Service) SessionManifest(ctx context.Context, operatorID, sessionID string) (ManifestResult, error) {
	sess, err := s.sessions.Get(ctx, operatorID, sessionID)
	if err != nil {
		return ManifestResult{}, err
	}

	list, err := s.bookings.List(ctx, bookings.ListParams{OperatorID: operatorID, SessionID: sessionID})
	if err != nil {
		return ManifestResult{}, err
	}

	now := s.now()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(manifestHeader); err != nil {
		return ManifestResult{}, apperr.Wrap(err)
	}

	rows, divers := 0, 0
	for i := range list {
		b := &list[i]
		if b.BookingStatus == bookings.StatusCancelled {
			continue
		}
		if err := w.Write(manifestRow(b, now)); err != nil {
			return ManifestResult{}, apperr.Wrap(err)
		}
		rows++
		divers += b.Headcount
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ManifestResult{}, apperr.Wrap(err)
	}

	name := fmt.Sprintf("manifest-%s-%s.csv", sess.DiveDatetime.Format("2006-01-02"), sessionID)
	put, err := s.store.Put(ctx, &buf, storage.PutInput{
		Filename:    name,
		ContentType: "text/csv",
		Size:        int64(buf.Len()),
	})
	if err != nil {
		return ManifestResult{}, apperr.Wrap(fmt.Errorf("store manifest: %w", err))
	}

	s.logger.Info("manifest exported",
		"operator_id", operatorID, "session_id", sessionID, "rows", rows, "key", put.Key)
	return ManifestResult{SessionID: sessionID, Key: put.Key, URL: put.URL, Rows: rows, Divers: divers}, nil
}

func manifestRow(b *bookings.Booking, now time.Time) []string {
	amount, currency := "", ""
	if b.PaymentAmountMinor != nil && b.PaymentCurrency != nil {
		currency = *b.PaymentCurrency
		if v, err := money.MinorToMajorDisplay(strconv.FormatInt(*b.PaymentAmountMinor, 10), currency, 2); err == nil {
			amount = v
		}
	}
	email, phone := "", ""
	if b.GuestEmail != nil {
		email = *b.GuestEmail
	}
	if b.GuestPhone != nil {
		phone = *b.GuestPhone
	}
	return []string{
		b.GuestName,
		strconv.Itoa(b.Headcount),
		bookings.UIStatus(b, now),
		b.PaymentStatus,
		amount,
		currency,
		email,
		phone,
	}
}
