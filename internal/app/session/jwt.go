package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"time"
)

// session.Manager interface implementation
var _ Manager = (*JWT)(nil)

// JWT issues HS256 signed tokens carrying the session id, sessions themselves live in Store
type JWT struct {
	issuer        string
	secretKey     []byte
	tokenLifetime time.Duration
	users         UserReader
	store         Store
}

type Option func(svc *JWT)

func WithIssuer(issuer string) Option {
	return func(svc *JWT) {
		svc.issuer = issuer
	}
}

func WithLifetime(d time.Duration) Option {
	return func(svc *JWT) {
		if d > 0 {
			svc.tokenLifetime = d
		}
	}
}

func (svc *JWT) LoggerComponent() string {
	return "Session.JWT"
}

func NewJWT(secretKey string, users UserReader, store Store, opts ...Option) *JWT {
	var (
		defaultTokenLifeTime = time.Hour
	)

	s := &JWT{
		secretKey:     []byte(secretKey),
		users:         users,
		store:         store,
		tokenLifetime: defaultTokenLifeTime,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create method of session.Creator implementation
func (svc *JWT) Create(ctx context.Context, u *model.User) (string, error) {
	l := logger.Get(ctx, svc)
	l.Debug().Str("user-id", u.ID.String()).Msg("Create")

	id := uuid.New().String()

	now := time.Now()
	exp := now.Add(svc.tokenLifetime)

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        id,
			NotBefore: now.Unix(),
			ExpiresAt: exp.Unix(),
			Issuer:    svc.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	strToken, err := token.SignedString(svc.secretKey)
	if err != nil {
		l.Error().Err(err).Send()

		return "", fmt.Errorf("jwt encode: %w", err)
	}

	err = svc.store.Save(ctx, id, Session{
		UserID:    u.ID,
		StartedAt: now,
		ExpiresAt: exp,
	})
	if err != nil {
		return "", fmt.Errorf("session save: %w", err)
	}

	return strToken, nil
}

// Read method of session.Reader implementation
func (svc *JWT) Read(ctx context.Context, tokenString string) (*model.User, error) {
	l := logger.Get(ctx, svc)
	l.Debug().Msg("Read request")

	c := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return svc.secretKey, nil
	})

	if err != nil {
		l.Debug().Err(err).Msg("ParseWithClaims failed")

		return nil, ErrInvalidToken
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		l.Debug().Msg("Invalid token")

		return nil, ErrInvalidToken
	}

	s, err := svc.store.Load(ctx, c.StandardClaims.Id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Debug().Msg("Session not found")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("session load: %w", err)
	}

	if s.ExpiresAt.Before(time.Now()) {
		l.Debug().
			Str("session_id", c.StandardClaims.Id).
			Str("user_id", s.UserID.String()).
			Msg("Session expired")
		_ = svc.store.Delete(ctx, c.StandardClaims.Id)

		return nil, ErrInvalidToken
	}

	u, err := svc.users.Read(ctx, s.UserID)
	if err != nil {
		l.Debug().Err(err).Send()

		return nil, ErrInvalidToken
	}

	return u, nil
}
