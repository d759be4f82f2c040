package model

import (
	"time"

	"gorm.io/gorm"
)

// Store represents a physical BV Celular shop
type Store struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Name      string         `json:"name" gorm:"type:varchar(150);not null"`
	Address   string         `json:"address" gorm:"type:varchar(255)"`
	City      string         `json:"city" gorm:"type:varchar(100);index"`
	Phone     string         `json:"phone" gorm:"type:varchar(30)"`
	WhatsApp  string         `json:"whatsapp" gorm:"type:varchar(30)"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// StoreInsert mirrors the columns accepted when creating a store
type StoreInsert struct {
	Name     string `json:"name" validate:"required,max=150"`
	Address  string `json:"address" validate:"max=255"`
	City     string `json:"city" validate:"max=100"`
	Phone    string `json:"phone" validate:"max=30"`
	WhatsApp string `json:"whatsapp" validate:"max=30"`
	IsActive *bool  `json:"is_active"`
}

// StoreUpdate carries the columns to change; nil fields are left untouched
type StoreUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	City     *string `json:"city" validate:"omitempty,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=30"`
	WhatsApp *string `json:"whatsapp" validate:"omitempty,max=30"`
	IsActive *bool   `json:"is_active"`
}

// ToStore builds the row to insert
func (in StoreInsert) ToStore() Store {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Store{
		Name:     in.Name,
		Address:  in.Address,
		City:     in.City,
		Phone:    in.Phone,
		WhatsApp: in.WhatsApp,
		IsActive: active,
	}
}

// Changes returns the column map for a partial update
func (up StoreUpdate) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if up.Name != nil {
		changes["name"] = *up.Name
	}
	if up.Address != nil {
		changes["address"] = *up.Address
	}
	if up.City != nil {
		changes["city"] = *up.City
	}
	if up.Phone != nil {
		changes["phone"] = *up.Phone
	}
	if up.WhatsApp != nil {
		changes["whats_app"] = *up.WhatsApp
	}
	if up.IsActive != nil {
		changes["is_active"] = *up.IsActive
	}
	return changes
}
