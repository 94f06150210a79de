package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/modules/sessions"
)

type VesselHandler struct {
	Sessions *sessions.Repo
}

func NewVesselHandler(sr *sessions.Repo) *VesselHandler {
	return &VesselHandler{Sessions: sr}
}

type createVesselRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	MaxCapacity int    `json:"max_capacity" binding:"required,gte=1"`
}

// POST /api/v1/vessels
func (h *VesselHandler) Create(c *gin.Context) {
	var req createVesselRequest
	if !bind(c, &req) {
		return
	}

	v, err := h.Sessions.CreateVessel(c.Request.Context(), sessions.CreateVesselInput{
		OperatorID:  middleware.GetOperatorID(c),
		Name:        req.Name,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vessel": v})
}

// GET /api/v1/vessels
func (h *VesselHandler) List(c *gin.Context) {
	out, err := h.Sessions.ListVessels(c.Request.Context(), middleware.GetOperatorID(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vessels": out})
}
