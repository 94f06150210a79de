package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/logging"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/payments"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	Provider   payments.Provider
	Reconciler *bookings.Reconciler
}

func NewWebhookHandler(p payments.Provider, r *bookings.Reconciler) *WebhookHandler {
	return &WebhookHandler{Provider: p, Reconciler: r}
}

// POST /webhooks/stripe
//
// Signature failures are 400s so a misconfigured endpoint is loud.
// Processing failures after a valid signature are acknowledged with 200:
// the event is already recorded and a gateway retry cannot fix a handler
// bug, it only hammers the endpoint.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	log := logging.From(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := h.Provider.VerifyWebhook(body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrGatewayNotConfigured) {
			log.Error("webhook received but gateway is not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
			return
		}
		log.Warn("webhook signature rejected", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	outcome, err := h.Reconciler.Reconcile(c.Request.Context(), ev)
	if err != nil {
		log.Error("webhook reconcile failed", "event_id", ev.ID, "type", ev.Type, "err", err)
		c.JSON(http.StatusOK, gin.H{"ok": true, "outcome": "error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "outcome": outcome})
}
