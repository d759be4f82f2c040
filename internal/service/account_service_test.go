package service

import (
	"context"
	"errors"
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/database"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewAccountService(database.OpenTestDB(t))
	ctx := context.Background()

	user, customer, err := svc.RegisterCustomer(ctx, "Cliente@Email.com", "minhasenha", "Cliente", "31988887777")
	if err != nil {
		t.Fatalf("RegisterCustomer failed: %v", err)
	}
	if user.Email != "cliente@email.com" || customer.UserID != user.ID {
		t.Errorf("Unexpected registration result %+v / %+v", user, customer)
	}
	if user.Password == "minhasenha" {
		t.Error("Expected password to be hashed")
	}

	if _, _, err := svc.RegisterCustomer(ctx, "cliente@email.com", "x", "", ""); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	got, err := svc.Authenticate(ctx, "CLIENTE@email.com", "minhasenha")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, got.ID)
	}

	if _, err := svc.Authenticate(ctx, "cliente@email.com", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for a bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ninguem@email.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for an unknown email, got %v", err)
	}
}
