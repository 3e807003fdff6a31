package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrImageNotFound    = errors.New("gallery image not found")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrDuplicateReorder = errors.New("reorder list contains duplicate ids")
	ErrEmptyReorderList = errors.New("reorder list is empty")
)

// GalleryFiles is the file side of the gallery.
type GalleryFiles interface {
	Resolve(rel string) (string, error)
	Remove(rel string) error
	PublicURL(rel string) string
}

// main first; gallery rows by order_index with NULLs last, then by upload time
const galleryOrder = "CASE WHEN image_type = 'main' THEN 0 ELSE 1 END, " +
	"CASE WHEN order_index IS NULL THEN 1 ELSE 0 END, order_index ASC, created_at ASC, id ASC"

type GalleryService struct {
	db           *gorm.DB
	files        GalleryFiles
	queryTimeout time.Duration
}

func NewGalleryService(db *gorm.DB, files GalleryFiles, queryTimeout time.Duration) *GalleryService {
	return &GalleryService{
		db:           db,
		files:        files,
		queryTimeout: queryTimeout,
	}
}

// List returns live images in display order. The query races a timer of
// queryTimeout and reports utils.ErrTimeout if the timer wins.
func (s *GalleryService) List(ctx context.Context) ([]models.GalleryImage, error) {
	images, err := utils.WithTimeout(ctx, s.queryTimeout, func(ctx context.Context) ([]models.GalleryImage, error) {
		var images []models.GalleryImage
		err := s.db.WithContext(ctx).Order(galleryOrder).Find(&images).Error
		return images, err
	})
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].URL = s.files.PublicURL(images[i].Filename)
	}
	return images, nil
}

// Add records a new image. A main image replaces every live main row:
// those rows are soft-deleted in the same transaction as the insert and
// their files are unlinked afterwards on a best-effort basis.
func (s *GalleryService) Add(ctx context.Context, filename string, imageType models.ImageType) (*models.GalleryImage, error) {
	if !imageType.Valid() {
		return nil, ErrInvalidImageType
	}
	if _, err := s.files.Resolve(filename); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	image := models.GalleryImage{
		Filename:  filename,
		ImageType: imageType,
	}
	var replaced []models.GalleryImage

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if imageType == models.ImageTypeMain {
			if err := tx.Where("image_type = ?", models.ImageTypeMain).Find(&replaced).Error; err != nil {
				return err
			}
			if len(replaced) > 0 {
				ids := make([]uint, len(replaced))
				for i, r := range replaced {
					ids[i] = r.ID
				}
				if err := tx.Where("id IN ?", ids).Delete(&models.GalleryImage{}).Error; err != nil {
					return err
				}
			}
		} else {
			var maxIndex int
			err := tx.Model(&models.GalleryImage{}).
				Where("image_type = ?", models.ImageTypeGallery).
				Select("COALESCE(MAX(order_index), -1)").
				Scan(&maxIndex).Error
			if err != nil {
				return err
			}
			next := maxIndex + 1
			image.OrderIndex = &next
		}
		return tx.Create(&image).Error
	})
	if err != nil {
		return nil, fmt.Errorf("add gallery image: %w", err)
	}

	for _, old := range replaced {
		if old.Filename == image.Filename {
			continue
		}
		s.unlink(ctx, old)
	}

	image.URL = s.files.PublicURL(image.Filename)
	logrus.WithFields(logrus.Fields{
		"id":          image.ID,
		"image_type":  image.ImageType,
		"order_index": image.OrderIndex,
		"replaced":    len(replaced),
	}).Info("gallery image added")
	return &image, nil
}

// Reorder sets order_index to each id's position in ids (0-based). All ids
// must be distinct live gallery rows; the update is all-or-nothing.
func (s *GalleryService) Reorder(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return ErrEmptyReorderList
	}
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateReorder, id)
		}
		seen[id] = struct{}{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.GalleryImage{}).
			Where("id IN ? AND image_type = ?", ids, models.ImageTypeGallery).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return ErrImageNotFound
		}

		for position, id := range ids {
			err := tx.Model(&models.GalleryImage{}).
				Where("id = ?", id).
				Update("order_index", position).Error
			if err != nil {
				return fmt.Errorf("update order of %d: %w", id, err)
			}
		}
		return nil
	})
}

// Remove soft-deletes the row, then tries to unlink its file. File errors
// are logged and do not fail the call.
func (s *GalleryService) Remove(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var image models.GalleryImage
	if err := s.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return err
	}

	result := s.db.WithContext(ctx).Delete(&image)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrImageNotFound
	}

	s.unlink(ctx, image)
	logrus.WithFields(logrus.Fields{
		"id":       image.ID,
		"filename": image.Filename,
	}).Info("gallery image removed")
	return nil
}

// ReferencedFiles returns the filenames of every live row.
func (s *GalleryService) ReferencedFiles(ctx context.Context) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var names []string
	if err := s.db.WithContext(ctx).Model(&models.GalleryImage{}).Pluck("filename", &names).Error; err != nil {
		return nil, err
	}
	refs := make(map[string]struct{}, len(names))
	for _, n := range names {
		refs[n] = struct{}{}
	}
	return refs, nil
}

func (s *GalleryService) unlink(ctx context.Context, image models.GalleryImage) {
	entry := logrus.WithFields(logrus.Fields{
		"id":       image.ID,
		"filename": image.Filename,
	})

	// another live row may point at the same file
	var count int64
	err := s.db.WithContext(ctx).Model(&models.GalleryImage{}).
		Where("filename = ?", image.Filename).
		Count(&count).Error
	if err != nil {
		entry.WithError(err).Warn("skip file removal, reference check failed")
		return
	}
	if count > 0 {
		return
	}

	if err := s.files.Remove(image.Filename); err != nil {
		entry.WithError(err).Warn("failed to remove gallery file")
	}
}
