package services

import (
	"context"
	"errors"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/models"
	"github.com/minhwang72/monsil-wedding/internal/utils"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminNotFound      = errors.New("admin not found")
)

type AuthService struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewAuthService(db *gorm.DB, queryTimeout time.Duration) *AuthService {
	return &AuthService{db: db, queryTimeout: queryTimeout}
}

func (s *AuthService) Login(ctx context.Context, req *models.AdminLoginRequest) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var admin models.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	valid, err := utils.VerifyPassword(req.Password, admin.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&admin).Update("last_login_at", now).Error; err != nil {
		return nil, err
	}
	admin.LastLoginAt = &now
	return &admin, nil
}

func (s *AuthService) GetAdminByID(ctx context.Context, id uint) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var admin models.Admin
	if err := s.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}
