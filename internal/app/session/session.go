package session

import (
	"context"
	"errors"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"rewards/internal/app/model"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNotFound     = errors.New("session not found")
)

type Creator interface {
	// Create session for user and return signed token
	Create(ctx context.Context, u *model.User) (string, error)
}

type Reader interface {
	// Read user of the session identified by token
	Read(ctx context.Context, token string) (*model.User, error)
}

type Manager interface {
	Creator
	Reader
}

type Claims struct {
	jwt.StandardClaims
}

type Session struct {
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    uuid.UUID `json:"user_id"`
}

// Store keeps sessions by id
type Store interface {
	Save(ctx context.Context, id string, s Session) error
	// Load returns ErrNotFound for unknown id
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type UserReader interface {
	Read(ctx context.Context, id uuid.UUID) (*model.User, error)
}
