package models

import (
	"time"

	"gorm.io/gorm"
)

type GuestbookEntry struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"size:50;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Content      string         `json:"content" gorm:"type:text;not null"`
	CreatedAt    time.Time      `json:"created_at" gorm:"index"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (GuestbookEntry) TableName() string {
	return "guestbook"
}

type GuestbookCreateRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=50"`
	Password string `json:"password" validate:"required,min=4,max=50"`
	Content  string `json:"content" validate:"required,notblank,max=1000"`
}

type GuestbookDeleteRequest struct {
	Password string `json:"password"`
}

type GuestbookPage struct {
	Entries    []GuestbookEntry `json:"entries"`
	Pagination *Pagination      `json:"pagination"`
}
