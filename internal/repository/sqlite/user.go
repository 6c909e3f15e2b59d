package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/otabek/ijara/internal/apperror"
	"github.com/otabek/ijara/internal/model"
	"github.com/otabek/ijara/internal/repository"
)

// compile-time check that *UserRepo implements repository.UserRepository
var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo provides user persistence on a shared connection pool. Obtain
// one from DB.Users.
type UserRepo struct {
	conn *sql.DB
}

// GetByTelegramID looks up a user by their Telegram id. "No row" comes back
// as the domain's NotFound error — for the submission workflow that is the
// signal to create the user, not a failure.
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	err := r.conn.QueryRowContext(ctx,
		`SELECT telegram_id, username, full_name, created_at
		 FROM users WHERE telegram_id = ?`,
		telegramID,
	).Scan(
		&user.TelegramID,
		&user.Username,
		&user.FullName,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%d", telegramID))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", telegramID, err)
	}
	return &user, nil
}

// Create inserts a new user record. The Telegram id is the primary key, so
// inserting an existing user fails — callers look the user up first.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username, full_name, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.TelegramID,
		user.Username,
		user.FullName,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating user %d: %w", user.TelegramID, err)
	}

	return nil
}
