package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmployeeService persists employee profiles and their user accounts
type EmployeeService struct {
	db *gorm.DB
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

// List returns all employees with their stores
func (s *EmployeeService) List(ctx context.Context) ([]model.Employee, error) {
	defer prometheus.TrackDBOperation("employee_list")(time.Now())

	var employees []model.Employee
	err := s.db.WithContext(ctx).Preload("Stores").Preload("User").Order("name ASC").Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// Get returns one employee with its stores
func (s *EmployeeService) Get(ctx context.Context, id uint) (*model.Employee, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *EmployeeService) get(db *gorm.DB, id uint) (*model.Employee, error) {
	var employee model.Employee
	err := db.Preload("Stores").Preload("User").First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// Create registers a new user account with an employee profile. The email must
// not belong to any existing user, customer or employee.
func (s *EmployeeService) Create(ctx context.Context, in model.EmployeeInsert) (*model.Employee, error) {
	defer prometheus.TrackDBOperation("employee_create")(time.Now())

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = model.RoleSeller
	}

	var employeeID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		email := strings.ToLower(strings.TrimSpace(in.Email))

		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}

		stores, err := findStores(tx, in.StoreIDs)
		if err != nil {
			return err
		}

		user := model.User{Email: email, Password: string(hashed)}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		employee := model.Employee{
			UserID:   user.ID,
			Name:     in.Name,
			Role:     role,
			IsActive: true,
		}
		if err := tx.Omit("Stores", "User").Create(&employee).Error; err != nil {
			return err
		}
		if err := tx.Model(&employee).Association("Stores").Replace(stores); err != nil {
			return fmt.Errorf("link stores: %w", err)
		}
		employeeID = employee.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, employeeID)
}

// Update applies a partial update. A non-nil store list replaces the links.
func (s *EmployeeService) Update(ctx context.Context, id uint, up model.EmployeeUpdate) (*model.Employee, error) {
	defer prometheus.TrackDBOperation("employee_update")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		employee, err := s.get(tx, id)
		if err != nil {
			return err
		}
		if changes := up.Changes(); len(changes) > 0 {
			if err := tx.Model(&model.Employee{}).Where("id = ?", id).Updates(changes).Error; err != nil {
				return err
			}
		}
		if up.StoreIDs != nil {
			stores, err := findStores(tx, up.StoreIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(employee).Association("Stores").Replace(stores); err != nil {
				return fmt.Errorf("link stores: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the employee profile; the user account stays and loses admin access
func (s *EmployeeService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("employee_delete")(time.Now())

	result := s.db.WithContext(ctx).Delete(&model.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// findStores loads the stores for the given ids, failing on unknown ids
func findStores(tx *gorm.DB, ids []uint) ([]model.Store, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one store is required", ErrInvalidInput)
	}

	unique := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}

	var stores []model.Store
	if err := tx.Where("id IN ?", ids).Find(&stores).Error; err != nil {
		return nil, err
	}
	if len(stores) != len(unique) {
		return nil, fmt.Errorf("%w: unknown store id", ErrInvalidInput)
	}
	return stores, nil
}
