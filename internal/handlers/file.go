package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/cache"
	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/services"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	freeUploadDir = "images"

	// room for multipart boundaries and the other form fields
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

type FileHandler struct {
	imageService   *services.ImageService
	galleryService *services.GalleryService
	store          *services.FileStore
	cache          *cache.Cache
	config         *config.Config
}

func NewFileHandler(imageService *services.ImageService, galleryService *services.GalleryService, store *services.FileStore, responseCache *cache.Cache, cfg *config.Config) *FileHandler {
	return &FileHandler{
		imageService:   imageService,
		galleryService: galleryService,
		store:          store,
		cache:          responseCache,
		config:         cfg,
	}
}

type uploadResult struct {
	Image *services.ProcessedImage `json:"image"`
	Entry *models.GalleryImage     `json:"entry,omitempty"`
}

// UploadGalleryImage processes the file and records it as a gallery or
// main image. The file is discarded if the row cannot be written.
func (h *FileHandler) UploadGalleryImage(c *gin.Context) {
	deadline := time.Now().Add(h.config.File.UploadTimeout)
	file, header, ok := h.readUpload(c, deadline)
	if !ok {
		return
	}
	defer file.Close()

	imageType := models.ImageTypeGallery
	if raw := c.Request.FormValue("image_type"); raw != "" {
		imageType = models.ImageType(raw)
	}
	if !imageType.Valid() {
		utils.Error(c, http.StatusBadRequest, "image_type must be main or gallery")
		return
	}

	h.process(c, deadline, file, header, string(imageType), func(ctx context.Context, img *services.ProcessedImage) (*uploadResult, error) {
		entry, err := h.galleryService.Add(ctx, img.Path, imageType)
		if err != nil {
			h.imageService.Discard(img.Path)
			return nil, err
		}
		if h.cache != nil {
			h.cache.DeletePrefix(galleryCachePrefix)
		}
		return &uploadResult{Image: img, Entry: entry}, nil
	})
}

// UploadImage stores a free-standing image and returns where it lives.
func (h *FileHandler) UploadImage(c *gin.Context) {
	deadline := time.Now().Add(h.config.File.UploadTimeout)
	file, header, ok := h.readUpload(c, deadline)
	if !ok {
		return
	}
	defer file.Close()

	h.process(c, deadline, file, header, freeUploadDir, func(_ context.Context, img *services.ProcessedImage) (*uploadResult, error) {
		return &uploadResult{Image: img}, nil
	})
}

// readUpload reads the multipart body. The connection read deadline is the
// upload deadline, so a slow client cannot hold the handler past it.
func (h *FileHandler) readUpload(c *gin.Context, deadline time.Time) (multipart.File, *multipart.FileHeader, bool) {
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logrus.WithError(err).Warn("failed to set upload read deadline")
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.File.MaxUploadSize+multipartOverhead)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeUploadError(c, services.ErrFileTooLarge)
		case isReadTimeout(err):
			writeUploadError(c, utils.ErrTimeout)
		default:
			utils.Error(c, http.StatusBadRequest, "multipart form expected")
		}
		return nil, nil, false
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "file field is required")
		return nil, nil, false
	}
	return file, header, true
}

func isReadTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// process runs the image pipeline and record with whatever is left of the
// upload deadline.
func (h *FileHandler) process(c *gin.Context, deadline time.Time, file multipart.File, header *multipart.FileHeader, subdir string, record func(context.Context, *services.ProcessedImage) (*uploadResult, error)) {
	result, err := utils.WithTimeoutNotify(c.Request.Context(), time.Until(deadline), func(ctx context.Context) (*uploadResult, error) {
		img, err := h.imageService.Process(ctx, file, header.Size, subdir)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			h.imageService.Discard(img.Path)
			return nil, err
		}
		return record(ctx, img)
	}, h.lateUpload)
	if err != nil {
		writeUploadError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"original_name": header.Filename,
		"path":          result.Image.Path,
		"subdir":        subdir,
	}).Info("upload stored")
	utils.Created(c, result)
}

// lateUpload handles an upload that completed after the client was already
// told it timed out. Free images have no row pointing at them and are
// dropped; gallery rows are committed and stay visible, so they are only
// reported.
func (h *FileHandler) lateUpload(result *uploadResult, err error) {
	if err != nil || result == nil || result.Image == nil {
		return
	}
	fields := logrus.Fields{"path": result.Image.Path}
	if result.Entry == nil {
		h.imageService.Discard(result.Image.Path)
		logrus.WithFields(fields).Warn("upload finished after deadline, file discarded")
		return
	}
	fields["id"] = result.Entry.ID
	fields["image_type"] = result.Entry.ImageType
	logrus.WithFields(fields).Warn("gallery image recorded after upload deadline")
}

func writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFileTooLarge):
		utils.Error(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrHEICUnsupported),
		errors.Is(err, services.ErrUnsupportedType):
		utils.Error(c, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, services.ErrEmptyFile),
		errors.Is(err, services.ErrDecodeImage):
		utils.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, utils.ErrTimeout):
		utils.Error(c, http.StatusGatewayTimeout, "upload timed out")
	default:
		logrus.WithError(err).Error("upload failed")
		utils.InternalError(c)
	}
}

// ServeUpload streams a stored file. Anything that would resolve outside
// the upload root is rejected before the filesystem is touched.
func (h *FileHandler) ServeUpload(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")

	full, err := h.store.Resolve(rel)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"path":      rel,
			"client_ip": c.ClientIP(),
		}).Warn("rejected upload path")
		utils.Error(c, http.StatusBadRequest, "invalid file path")
		return
	}
	if !h.config.IsAllowedExtension(path.Ext(rel)) {
		utils.Forbidden(c, "file type not allowed")
		return
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		utils.NotFound(c, "file not found")
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", 365*24*60*60))
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(full)
}
