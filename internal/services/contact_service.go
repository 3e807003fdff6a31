package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/models"

	"gorm.io/gorm"
)

var ErrContactNotFound = errors.New("contact not found")

type ContactService struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewContactService(db *gorm.DB, queryTimeout time.Duration) *ContactService {
	return &ContactService{db: db, queryTimeout: queryTimeout}
}

// List returns the groom's family first, then the bride's.
func (s *ContactService) List(ctx context.Context) ([]models.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	contacts := []models.Contact{}
	err := s.db.WithContext(ctx).
		Order("CASE WHEN side = 'groom' THEN 0 ELSE 1 END, sort_order ASC, id ASC").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

// Save creates the contact when req.ID is zero and updates it otherwise.
func (s *ContactService) Save(ctx context.Context, req *models.ContactSaveRequest) (*models.Contact, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	contact := models.Contact{}
	if req.ID != 0 {
		if err := s.db.WithContext(ctx).First(&contact, req.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrContactNotFound
			}
			return nil, err
		}
	}

	contact.Side = req.Side
	contact.Relation = strings.TrimSpace(req.Relation)
	contact.Name = strings.TrimSpace(req.Name)
	contact.Phone = strings.TrimSpace(req.Phone)
	contact.BankName = strings.TrimSpace(req.BankName)
	contact.AccountNumber = strings.TrimSpace(req.AccountNumber)
	contact.AccountHolder = strings.TrimSpace(req.AccountHolder)
	contact.SortOrder = req.SortOrder

	if err := s.db.WithContext(ctx).Save(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id uint) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result := s.db.WithContext(ctx).Delete(&models.Contact{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
