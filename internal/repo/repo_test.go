package repo

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"postboard/internal/db"
	"postboard/internal/hash"
	"postboard/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, email, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword("password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Firstname:    "Test",
		Lastname:     "User",
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedPost(t *testing.T, gdb *gorm.DB, userID uint, title string) *models.Post {
	t.Helper()

	post := models.Post{
		Title:       title,
		Description: "a description",
		IsPublished: true,
		UserID:      userID,
	}
	if err := gdb.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return &post
}
