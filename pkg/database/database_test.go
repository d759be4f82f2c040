package database

import (
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"

	"golang.org/x/crypto/bcrypt"
)

func TestSeedAdmin(t *testing.T) {
	db := OpenTestDB(t)
	admin := config.AdminConfig{Email: "Admin@BVCelular.com.br", Password: "troque-me", Name: "Administrador"}

	created, err := SeedAdmin(db, admin)
	if err != nil || !created {
		t.Fatalf("Expected admin to be created, got %v (%v)", created, err)
	}

	var user model.User
	if err := db.Where("email = ?", "admin@bvcelular.com.br").First(&user).Error; err != nil {
		t.Fatalf("Admin user not found: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("troque-me")) != nil {
		t.Error("Expected the admin password to be hashed with bcrypt")
	}

	var employee model.Employee
	if err := db.Where("user_id = ?", user.ID).First(&employee).Error; err != nil {
		t.Fatalf("Admin employee not found: %v", err)
	}
	if employee.Role != model.RoleAdmin || !employee.IsActive {
		t.Errorf("Unexpected admin profile %+v", employee)
	}

	created, err = SeedAdmin(db, admin)
	if err != nil || created {
		t.Errorf("Expected second seed to be a no-op, got %v (%v)", created, err)
	}
}

func TestSeedAdminWithoutConfig(t *testing.T) {
	created, err := SeedAdmin(OpenTestDB(t), config.AdminConfig{})
	if err != nil || created {
		t.Errorf("Expected nothing to be seeded, got %v (%v)", created, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(&config.DBConfig{Driver: "mysql"}); err == nil {
		t.Fatal("Expected an unknown driver to be rejected")
	}
}
