package model

import "time"

// PushSubscription is a browser endpoint registered for Web Push delivery
type PushSubscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Endpoint  string    `json:"endpoint" gorm:"type:varchar(512);uniqueIndex;not null"`
	P256dh    string    `json:"p256dh" gorm:"type:varchar(255);not null"`
	Auth      string    `json:"auth" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
