package models

import (
	"time"

	"gorm.io/gorm"
)

type ImageType string

const (
	ImageTypeMain    ImageType = "main"
	ImageTypeGallery ImageType = "gallery"
)

func (t ImageType) Valid() bool {
	return t == ImageTypeMain || t == ImageTypeGallery
}

type GalleryImage struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Filename   string         `json:"filename" gorm:"size:500;not null"`
	ImageType  ImageType      `json:"image_type" gorm:"size:20;not null;index:idx_gallery_type_order,priority:1"`
	OrderIndex *int           `json:"order_index" gorm:"index:idx_gallery_type_order,priority:2"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	URL string `json:"url" gorm:"-"`
}

func (GalleryImage) TableName() string {
	return "gallery"
}

type GalleryCreateRequest struct {
	Filename  string    `json:"filename" validate:"required,max=500"`
	ImageType ImageType `json:"image_type" validate:"required,oneof=main gallery"`
}

type GalleryReorderRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,min=1"`
}
