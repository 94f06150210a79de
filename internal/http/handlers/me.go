package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/http/middleware"
	"github.com/larrymclean/aquorix-pro-backend-new-sub000/internal/shared/apperr"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler { return &MeHandler{} }

// GET /api/v1/me
func (h *MeHandler) Show(c *gin.Context) {
	op, ok := middleware.GetOperator(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("authentication required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"operator": op})
}
