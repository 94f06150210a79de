package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
)

type BookingHandler struct {
	Bookings *bookings.Service
}

func NewBookingHandler(svc *bookings.Service) *BookingHandler {
	return &BookingHandler{Bookings: svc}
}

type createBookingRequest struct {
	SessionID  *string `json:"session_id"`
	GuestName  string  `json:"guest_name" binding:"required,max=255"`
	GuestEmail *string `json:"guest_email" binding:"omitempty,email"`
	GuestPhone *string `json:"guest_phone" binding:"omitempty,max=32"`
	Headcount  int     `json:"headcount" binding:"required,gte=1"`
}

// POST /api/v1/bookings
func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !bind(c, &req) {
		return
	}

	b, err := h.Bookings.Create(c.Request.Context(), bookings.CreateInput{
		OperatorID: middleware.GetOperatorID(c),
		SessionID:  req.SessionID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		Headcount:  req.Headcount,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": viewOf(b, time.Now())})
}

// GET /api/v1/bookings?session_id=&status=
func (h *BookingHandler) List(c *gin.Context) {
	out, err := h.Bookings.List(c.Request.Context(), bookings.ListParams{
		OperatorID: middleware.GetOperatorID(c),
		SessionID:  c.Query("session_id"),
		Status:     c.Query("status"),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": viewsOf(out, time.Now())})
}

// GET /api/v1/bookings/:id
func (h *BookingHandler) Show(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": viewOf(b, time.Now())})
}

type assignSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// POST /api/v1/bookings/:id/assign-session
func (h *BookingHandler) AssignSession(c *gin.Context) {
	var req assignSessionRequest
	if !bind(c, &req) {
		return
	}

	b, err := h.Bookings.AssignSession(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"), req.SessionID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": viewOf(b, time.Now())})
}

type approveRequest struct {
	Force bool `json:"force"`
}

// POST /api/v1/bookings/:id/approve
func (h *BookingHandler) Approve(c *gin.Context) {
	var req approveRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}

	res, err := h.Bookings.Approve(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"), req.Force)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	writeActionResult(c, res)
}

// POST /api/v1/bookings/:id/reject
func (h *BookingHandler) Reject(c *gin.Context) {
	res, err := h.Bookings.Reject(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	writeActionResult(c, res)
}

// POST /api/v1/bookings/:id/confirm
func (h *BookingHandler) Confirm(c *gin.Context) {
	res, err := h.Bookings.ConfirmAfterReview(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	writeActionResult(c, res)
}

func writeActionResult(c *gin.Context, res bookings.ActionResult) {
	payload := gin.H{
		"action":  res.Action,
		"booking": viewOf(res.Booking, time.Now()),
	}
	if res.CheckoutURL != "" {
		payload["checkout_url"] = res.CheckoutURL
	}
	c.JSON(http.StatusOK, payload)
}
