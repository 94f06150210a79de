package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/bookings"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/capacity"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/exports"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

type SessionHandler struct {
	Sessions *sessions.Repo
	Bookings *bookings.Repo
	Exports  *exports.Service
}

func NewSessionHandler(sr *sessions.Repo, br *bookings.Repo, ex *exports.Service) *SessionHandler {
	return &SessionHandler{Sessions: sr, Bookings: br, Exports: ex}
}

type createSessionRequest struct {
	DiveDatetime  time.Time `json:"dive_datetime" binding:"required"`
	Site          string    `json:"site" binding:"required,max=255"`
	VesselID      *string   `json:"vessel_id"`
	PricePerDiver string    `json:"price_per_diver" binding:"required,max=32"`
	Currency      string    `json:"currency" binding:"required,len=3"`
}

// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if !bind(c, &req) {
		return
	}

	s, err := h.Sessions.Create(c.Request.Context(), sessions.CreateSessionInput{
		OperatorID:    middleware.GetOperatorID(c),
		DiveDatetime:  req.DiveDatetime,
		Site:          req.Site,
		VesselID:      req.VesselID,
		PricePerDiver: req.PricePerDiver,
		Currency:      req.Currency,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": s})
}

// GET /api/v1/sessions?from=&to=&include_cancelled=
func (h *SessionHandler) List(c *gin.Context) {
	in := sessions.ListParams{
		OperatorID:       middleware.GetOperatorID(c),
		IncludeCancelled: c.Query("include_cancelled") == "true",
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.Fail(c, apperr.InvalidErr("invalid time range", map[string]string{"from": "must be RFC3339"}))
			return
		}
		in.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			middleware.Fail(c, apperr.InvalidErr("invalid time range", map[string]string{"to": "must be RFC3339"}))
			return
		}
		in.To = &t
	}

	out, err := h.Sessions.List(c.Request.Context(), in)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// GET /api/v1/sessions/:id
func (h *SessionHandler) Show(c *gin.Context) {
	s, err := h.Sessions.Get(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// POST /api/v1/sessions/:id/cancel
func (h *SessionHandler) Cancel(c *gin.Context) {
	s, err := h.Sessions.Cancel(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s})
}

// GET /api/v1/sessions/:id/availability
func (h *SessionHandler) Availability(c *gin.Context) {
	ctx := c.Request.Context()
	operatorID := middleware.GetOperatorID(c)

	s, err := h.Sessions.Get(ctx, operatorID, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	maxCap, err := h.Sessions.VesselCapacity(ctx, s)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	confirmed, pending, err := h.Bookings.SessionHeadcounts(ctx, operatorID, s.ID, time.Now())
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   s.ID,
		"availability": capacity.Compute(maxCap, confirmed, pending),
	})
}

// POST /api/v1/sessions/:id/manifest
func (h *SessionHandler) Manifest(c *gin.Context) {
	res, err := h.Exports.SessionManifest(c.Request.Context(), middleware.GetOperatorID(c), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"manifest": res})
}
