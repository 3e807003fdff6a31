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

const galleryCachePrefix = "/api/gallery"

type GalleryHandler struct {
	galleryService *services.GalleryService
	cache          *cache.Cache
}

func NewGalleryHandler(galleryService *services.GalleryService, responseCache *cache.Cache) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
		cache:          responseCache,
	}
}

// GetGallery never fails: a query error or timeout yields an empty list so
// the page still renders. Such responses are not cached.
func (h *GalleryHandler) GetGallery(c *gin.Context) {
	images, err := h.galleryService.List(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Warn("gallery list failed, returning empty list")
		c.Header("Cache-Control", "no-store")
		utils.Success(c, []models.GalleryImage{})
		return
	}
	utils.Success(c, images)
}

func (h *GalleryHandler) CreateImage(c *gin.Context) {
	var req models.GalleryCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	image, err := h.galleryService.Add(c.Request.Context(), req.Filename, req.ImageType)
	if err != nil {
		writeGalleryError(c, err)
		return
	}

	h.invalidate()
	utils.Created(c, image)
}

func (h *GalleryHandler) Reorder(c *gin.Context) {
	var req models.GalleryReorderRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.galleryService.Reorder(c.Request.Context(), req.IDs); err != nil {
		writeGalleryError(c, err)
		return
	}

	h.invalidate()
	utils.SuccessWithMessage(c, "gallery reordered", nil)
}

// DeleteImage takes the id from the path or from ?id=.
func (h *GalleryHandler) DeleteImage(c *gin.Context) {
	raw := c.Param("id")
	if raw == "" {
		raw = c.Query("id")
	}
	id, ok := parseID(raw)
	if !ok {
		utils.Error(c, http.StatusBadRequest, "invalid image id")
		return
	}

	if err := h.galleryService.Remove(c.Request.Context(), id); err != nil {
		writeGalleryError(c, err)
		return
	}

	h.invalidate()
	utils.SuccessWithMessage(c, "image deleted", nil)
}

func (h *GalleryHandler) invalidate() {
	if h.cache != nil {
		h.cache.DeletePrefix(galleryCachePrefix)
	}
}

func writeGalleryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrImageNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidImageType),
		errors.Is(err, services.ErrDuplicateReorder),
		errors.Is(err, services.ErrEmptyReorderList),
		errors.Is(err, services.ErrInvalidPath):
		utils.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, utils.ErrTimeout):
		utils.Error(c, http.StatusGatewayTimeout, "request timed out")
	default:
		logrus.WithError(err).Error("gallery operation failed")
		utils.InternalError(c)
	}
}
