package handlers

import (
	"errors"
	"net/http"

	"github.com/minhwang72/monsil-wedding/internal/cache"
	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const contactsCachePrefix = "/api/contacts"

type ContactHandler struct {
	contactService *services.ContactService
	cache          *cache.Cache
}

func NewContactHandler(contactService *services.ContactService, responseCache *cache.Cache) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		cache:          responseCache,
	}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	contacts, err := h.contactService.List(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("contact list failed")
		utils.InternalError(c)
		return
	}
	utils.Success(c, contacts)
}

func (h *ContactHandler) SaveContact(c *gin.Context) {
	var req models.ContactSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	contact, err := h.contactService.Save(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			utils.NotFound(c, err.Error())
			return
		}
		logrus.WithError(err).Error("contact save failed")
		utils.InternalError(c)
		return
	}

	h.invalidate()
	utils.Success(c, contact)
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		utils.Error(c, http.StatusBadRequest, "invalid contact id")
		return
	}

	if err := h.contactService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			utils.NotFound(c, err.Error())
			return
		}
		logrus.WithError(err).Error("contact delete failed")
		utils.InternalError(c)
		return
	}

	h.invalidate()
	utils.SuccessWithMessage(c, "contact deleted", nil)
}

func (h *ContactHandler) invalidate() {
	if h.cache != nil {
		h.cache.DeletePrefix(contactsCachePrefix)
	}
}
