package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/model"
)

func TestCreateUser_AndGet(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		TelegramID: 123456789,
		Username:   "otabek",
		FullName:   "Otabek Rahimov",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}

	found, err := db.Users().GetByTelegramID(context.Background(), 123456789)
	if err != nil {
		t.Fatalf("GetByTelegramID() error = %v", err)
	}
	if found.Username != "otabek" {
		t.Errorf("Username = %q, want %q", found.Username, "otabek")
	}
	if found.FullName != "Otabek Rahimov" {
		t.Errorf("FullName = %q, want %q", found.FullName, "Otabek Rahimov")
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByTelegramID(context.Background(), 5)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// The Telegram id is the primary key — creating the same user twice fails
// rather than silently replacing the first record.
func TestCreateUser_Duplicate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{TelegramID: 42, Username: "first"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	dup := &model.User{TelegramID: 42, Username: "second"}
	if err := db.Users().Create(context.Background(), dup); err == nil {
		t.Fatal("Create() should fail for a duplicate telegram id")
	}
}
