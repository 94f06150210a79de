package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/validation"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.Fail(c, apperr.InvalidErr("validation failed", validation.FromBindError(err, dst)))
		return false
	}
	return true
}

// bookingView decorates the stored row with the derived ui_status; clients
// never re-derive it themselves.
type bookingView struct {
	bookings.Booking
	UIStatus string `json:"ui_status"`
}

func viewOf(b bookings.Booking, now time.Time) bookingView {
	return bookingView{Booking: b, UIStatus: bookings.UIStatus(&b, now)}
}

func viewsOf(list []bookings.Booking, now time.Time) []bookingView {
	out := make([]bookingView, 0, len(list))
	for _, b := range list {
		out = append(out, viewOf(b, now))
	}
	return out
}
