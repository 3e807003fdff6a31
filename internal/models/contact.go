package models

import "time"

type ContactSide string

const (
	SideGroom ContactSide = "groom"
	SideBride ContactSide = "bride"
)

type Contact struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	Side          ContactSide `json:"side" gorm:"size:10;not null;index"`
	Relation      string      `json:"relation" gorm:"size:50;not null"`
	Name          string      `json:"name" gorm:"size:50;not null"`
	Phone         string      `json:"phone" gorm:"size:30"`
	BankName      string      `json:"bank_name" gorm:"size:50"`
	AccountNumber string      `json:"account_number" gorm:"size:50"`
	AccountHolder string      `json:"account_holder" gorm:"size:50"`
	SortOrder     int         `json:"sort_order" gorm:"default:0"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

type ContactSaveRequest struct {
	ID            uint        `json:"id"`
	Side          ContactSide `json:"side" validate:"required,oneof=groom bride"`
	Relation      string      `json:"relation" validate:"required,notblank,max=50"`
	Name          string      `json:"name" validate:"required,notblank,max=50"`
	Phone         string      `json:"phone" validate:"omitempty,phone"`
	BankName      string      `json:"bank_name" validate:"max=50"`
	AccountNumber string      `json:"account_number" validate:"max=50"`
	AccountHolder string      `json:"account_holder" validate:"max=50"`
	SortOrder     int         `json:"sort_order" validate:"min=0"`
}
