package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item sold by the stores
type Product struct {
	ID               uint                `json:"id" gorm:"primarykey"`
	Name             string              `json:"name" gorm:"type:varchar(255);not null"`
	Description      string              `json:"description" gorm:"type:text"`
	Brand            string              `json:"brand" gorm:"type:varchar(100);index"`
	Category         string              `json:"category" gorm:"type:varchar(100);index"`
	Price            decimal.Decimal     `json:"price" gorm:"type:decimal(12,2);not null"`
	PromotionalPrice decimal.NullDecimal `json:"promotional_price" gorm:"type:decimal(12,2)"`
	Stock            int                 `json:"stock" gorm:"default:0"`
	IsActive         bool                `json:"is_active" gorm:"index"`
	Featured         bool                `json:"featured" gorm:"default:false"`
	Stores           []Store             `json:"stores" gorm:"many2many:product_stores"`
	Images           []ProductImage      `json:"images" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	DeletedAt        gorm.DeletedAt      `json:"-" gorm:"index"`
}

// ProductStore is the associative row between products and stores
type ProductStore struct {
	ProductID uint `gorm:"primaryKey"`
	StoreID   uint `gorm:"primaryKey"`
	CreatedAt time.Time
}

// TableName keeps the join table name used by the many2many tag
func (ProductStore) TableName() string {
	return "product_stores"
}

// ProductImage references an image kept in object storage
type ProductImage struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	ObjectKey string    `json:"-" gorm:"type:varchar(255);not null"`
	URL       string    `json:"url" gorm:"type:text;not null"`
	Position  int       `json:"position" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}
