package model

import (
	"time"

	"gorm.io/gorm"
)

// Employee roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSeller  = "seller"
)

// Employee is the staff profile of a user. Having one grants access to the
// admin area.
type Employee struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"type:varchar(150);not null"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'seller'"`
	IsActive  bool           `json:"is_active"`
	Stores    []Store        `json:"stores,omitempty" gorm:"many2many:employee_stores"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// EmployeeInsert mirrors the columns accepted when creating an employee. The
// user account is created alongside the profile.
type EmployeeInsert struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=150"`
	Role     string `json:"role" validate:"omitempty,oneof=admin manager seller"`
	StoreIDs []uint `json:"store_ids" validate:"required,min=1"`
}

// EmployeeUpdate carries the columns to change; nil fields are left untouched
type EmployeeUpdate struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin manager seller"`
	IsActive *bool   `json:"is_active"`
	StoreIDs []uint  `json:"store_ids" validate:"omitempty,min=1"`
}

// Changes returns the column map for a partial update
func (up EmployeeUpdate) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if up.Name != nil {
		changes["name"] = *up.Name
	}
	if up.Role != nil {
		changes["role"] = *up.Role
	}
	if up.IsActive != nil {
		changes["is_active"] = *up.IsActive
	}
	return changes
}
