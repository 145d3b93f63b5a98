// Package storetest opens throwaway SQLite databases loaded with the
// default catalog for package tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"consola/internal/models"
	"consola/internal/seed"
	"consola/internal/store"
)

// Open returns a migrated database in a temp dir, removed when t ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "consola.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), store.GormConfig(logger.Default.LogMode(logger.Silent)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// one connection keeps writes serialized for sqlite
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := seed.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// OpenSeeded is Open plus the embedded role/module catalog.
func OpenSeeded(t testing.TB) *gorm.DB {
	t.Helper()

	db := Open(t)
	c, err := seed.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := seed.Apply(context.Background(), db, c); err != nil {
		t.Fatalf("apply catalog: %v", err)
	}
	return db
}

func Role(t testing.TB, db *gorm.DB, name string) models.Role {
	t.Helper()

	var r models.Role
	if err := db.Where("name = ?", name).First(&r).Error; err != nil {
		t.Fatalf("role %q: %v", name, err)
	}
	return r
}

// CreateUser inserts an active user with a low-cost bcrypt hash of password.
func CreateUser(t testing.TB, db *gorm.DB, username, email, password, role string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	r := Role(t, db, role)
	u := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  username,
		Active:       true,
		RoleID:       r.ID,
	}
	if err := db.Omit("Role").Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	u.Role = r
	return u
}
