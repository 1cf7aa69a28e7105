// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gamelibrary/internal/database"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/token"
)

// Password is the plain-text password of every user created by CreateUser.
const Password = "password123"

// Secret signs test tokens.
const Secret = "test-secret"

// OpenInMemoryDB opens a private in-memory SQLite database and applies migrations.
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("access test db pool: %v", err)
	}
	// one connection keeps the in-memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeededDB returns a migrated database holding the default roles and permissions.
func SeededDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := OpenInMemoryDB(t)
	roles := service.NewRoleService(
		repository.NewRoleRepository(db),
		repository.NewUserRepository(db),
		repository.NewTransactionManager(db),
	)
	if err := roles.SeedDefaults(context.Background()); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	return db
}

// Issuer returns a token issuer signing with Secret.
func Issuer() *token.Issuer {
	return token.NewIssuer(Secret, time.Hour)
}

// CreateRole inserts a non-system role holding the named permissions.
func CreateRole(t *testing.T, db *gorm.DB, name string, permissions ...string) *model.Role {
	t.Helper()

	role := &model.Role{Name: name}
	if err := db.Omit("Permissions").Create(role).Error; err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}

	for _, p := range permissions {
		var perm model.Permission
		if err := db.Where("name = ?", p).FirstOrCreate(&perm, model.Permission{Name: p}).Error; err != nil {
			t.Fatalf("find permission %s: %v", p, err)
		}
		if err := db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error; err != nil {
			t.Fatalf("grant %s to %s: %v", p, name, err)
		}
	}
	return role
}

// CreateUser inserts a user with Password in the named role.
func CreateUser(t *testing.T, db *gorm.DB, name, email, roleName string) *model.User {
	t.Helper()

	var role model.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		t.Fatalf("find role %s: %v", roleName, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user := &model.User{Name: name, Email: email, Password: string(hash), RoleID: role.ID}
	if err := db.Omit("Role").Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	user.Role = role
	return user
}

// TokenFor signs a session token for user.
func TokenFor(t *testing.T, user *model.User) string {
	t.Helper()

	signed, _, err := Issuer().Issue(user.ID, user.Email, user.Role.Name)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// AddEntry inserts a library entry for user and game.
func AddEntry(t *testing.T, db *gorm.DB, userID, gameID uint, title string) *model.LibraryEntry {
	t.Helper()

	if err := db.Create(&model.Game{ID: gameID, Title: title}).Error; err != nil {
		// the game row may already exist for another user
		var existing model.Game
		if db.First(&existing, gameID).Error != nil {
			t.Fatalf("create game %d: %v", gameID, err)
		}
	}

	entry := &model.LibraryEntry{UserID: userID, GameID: gameID, Title: title, Status: model.StatusPending}
	if err := db.Omit("User").Create(entry).Error; err != nil {
		t.Fatalf("create library entry: %v", err)
	}
	return entry
}
