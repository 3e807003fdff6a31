package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/minhwang72/monsil-wedding/internal/middleware"
	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultGuestbookLimit = 20
	maxGuestbookLimit     = 100
)

type GuestbookHandler struct {
	guestbookService *services.GuestbookService
}

func NewGuestbookHandler(guestbookService *services.GuestbookService) *GuestbookHandler {
	return &GuestbookHandler{guestbookService: guestbookService}
}

func (h *GuestbookHandler) GetEntries(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", defaultGuestbookLimit)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultGuestbookLimit
	}
	if limit > maxGuestbookLimit {
		limit = maxGuestbookLimit
	}

	result, err := h.guestbookService.List(c.Request.Context(), page, limit)
	if err != nil {
		logrus.WithError(err).Error("guestbook list failed")
		utils.InternalError(c)
		return
	}
	utils.Success(c, result)
}

func (h *GuestbookHandler) CreateEntry(c *gin.Context) {
	var req models.GuestbookCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, err := h.guestbookService.Create(c.Request.Context(), &req)
	if err != nil {
		logrus.WithError(err).Error("guestbook create failed")
		utils.InternalError(c)
		return
	}
	utils.Created(c, entry)
}

// DeleteEntry requires the entry password unless the caller is an admin.
func (h *GuestbookHandler) DeleteEntry(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		utils.Error(c, http.StatusBadRequest, "invalid entry id")
		return
	}

	var req models.GuestbookDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.guestbookService.Delete(c.Request.Context(), id, req.Password, middleware.IsAdmin(c))
	switch {
	case err == nil:
		utils.SuccessWithMessage(c, "entry deleted", nil)
	case errors.Is(err, services.ErrEntryNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidPassword):
		utils.Unauthorized(c, err.Error())
	default:
		logrus.WithError(err).Error("guestbook delete failed")
		utils.InternalError(c)
	}
}
