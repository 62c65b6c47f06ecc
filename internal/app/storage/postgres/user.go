package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"rewards/internal/app/apperr"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
	"time"
)

// storage.UserRepository interface implementation
var _ storage.UserRepository = (*UserRepository)(nil)

type UserRepository struct {
	db *sql.DB
}

func (r *UserRepository) LoggerComponent() string {
	return "UserRepository"
}

func NewUserRepository(db *sql.DB) (*UserRepository, error) {
	s := &UserRepository{
		db: db,
	}
	return s, nil
}

// Create implementation of interface storage.UserRepository
func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user.Email == "" {
		return nil, apperr.NewValidationError("email", "is required")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	const SQL = `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
`

	if _, err := r.db.ExecContext(ctx, SQL, user.ID, user.Name, user.Email, user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.NewValidationError("email", "already registered")
		}
		return nil, classify(fmt.Errorf("insert: %w", err))
	}

	return user, nil
}

// Read implementation of interface storage.UserRepository
func (r *UserRepository) Read(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const SQL = `
		SELECT id, name, email, created_at
		FROM users
		WHERE id=$1
`
	user := &model.User{}

	err := r.db.QueryRowContext(ctx, SQL, id).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, classify(fmt.Errorf("select: %w", err))
	}

	return user, nil
}
