package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService registers customers and checks credentials
type AccountService struct {
	db *gorm.DB
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// RegisterCustomer creates a user with a customer profile
func (s *AccountService) RegisterCustomer(ctx context.Context, email, password, name, phone string) (*model.User, *model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	var user model.User
	var customer model.Customer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}

		user = model.User{Email: email, Password: string(hashed)}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		customer = model.Customer{UserID: user.ID, Name: name, Phone: phone}
		return tx.Create(&customer).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, &customer, nil
}

// Authenticate returns the user matching the email and password
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
