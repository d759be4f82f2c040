package database

import (
	"testing"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a migrated in-memory sqlite database private to the test.
// A single pooled connection keeps the in-memory schema alive.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := Open(&config.DBConfig{
		Driver:          "sqlite",
		Path:            ":memory:",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		LogLevel:        logger.Silent,
	})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
