package handlers

import (
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	sweepService *services.SweepService
}

func NewAdminHandler(sweepService *services.SweepService) *AdminHandler {
	return &AdminHandler{sweepService: sweepService}
}

// SweepOrphans removes upload files no live gallery row refers to.
func (h *AdminHandler) SweepOrphans(c *gin.Context) {
	result, err := h.sweepService.Sweep(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("manual orphan sweep failed")
		utils.InternalError(c)
		return
	}
	utils.Success(c, result)
}
