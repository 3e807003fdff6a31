package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := healthStatus{
		Status:   "ok",
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status.Status = "degraded"
		status.Database = err.Error()
		c.JSON(http.StatusServiceUnavailable, models.Response{
			Success: false,
			Data:    status,
			Error:   "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, models.Response{Success: true, Data: status})
}
