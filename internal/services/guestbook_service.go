package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEntryNotFound   = errors.New("guestbook entry not found")
	ErrInvalidPassword = errors.New("password does not match")
)

type GuestbookService struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewGuestbookService(db *gorm.DB, queryTimeout time.Duration) *GuestbookService {
	return &GuestbookService{db: db, queryTimeout: queryTimeout}
}

// List returns one page, newest first. Pages past what a 32-bit offset can
// address are clamped to the last addressable one.
func (s *GuestbookService) List(ctx context.Context, page, limit int) (*models.GuestbookPage, error) {
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.GuestbookEntry{}).Count(&total).Error; err != nil {
		return nil, err
	}

	entries := []models.GuestbookEntry{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return &models.GuestbookPage{
		Entries: entries,
		Pagination: &models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

func (s *GuestbookService) Create(ctx context.Context, req *models.GuestbookCreateRequest) (*models.GuestbookEntry, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	entry := models.GuestbookEntry{
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Content:      strings.TrimSpace(req.Content),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete soft-deletes an entry. Without admin rights the password must
// match the one given at creation; a mismatch leaves the row untouched.
func (s *GuestbookService) Delete(ctx context.Context, id uint, password string, asAdmin bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var entry models.GuestbookEntry
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	if !asAdmin {
		if password == "" {
			return ErrInvalidPassword
		}
		ok, err := utils.VerifyPassword(password, entry.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			logrus.WithField("id", id).Info("guestbook delete rejected, wrong password")
			return ErrInvalidPassword
		}
	}

	result := s.db.WithContext(ctx).Delete(&entry)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	logrus.WithFields(logrus.Fields{
		"id":    id,
		"admin": asAdmin,
	}).Info("guestbook entry deleted")
	return nil
}
