package methods

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"rewards/internal/app/apperr"
	"rewards/internal/app/logger"
	"rewards/internal/app/model"
	"rewards/internal/app/storage"
)

// Registry resolves payout destinations of users
type Registry struct {
	methods storage.MethodRepository
}

func (svc *Registry) LoggerComponent() string {
	return "Methods.Registry"
}

func NewRegistry(methods storage.MethodRepository) *Registry {
	return &Registry{
		methods: methods,
	}
}

// FindActive returns the method if it exists, belongs to userID and is active.
// All negative outcomes are reported as apperr.ErrNotUsable.
func (svc *Registry) FindActive(ctx context.Context, userID, methodID uuid.UUID) (*model.WithdrawalMethod, error) {
	l := logger.Get(ctx, svc)

	m, err := svc.methods.Read(ctx, methodID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotUsable
		}
		return nil, fmt.Errorf("method read: %w", err)
	}

	if m.UserID != userID || !m.Active {
		l.Debug().
			Str("method_id", methodID.String()).
			Str("user_id", userID.String()).
			Bool("active", m.Active).
			Msg("Method not usable")
		return nil, apperr.ErrNotUsable
	}

	return m, nil
}

// ListActive returns active methods of the user with masked account numbers
func (svc *Registry) ListActive(ctx context.Context, userID uuid.UUID) ([]model.MethodView, error) {
	mm, err := svc.methods.AllActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("methods list: %w", err)
	}

	res := make([]model.MethodView, 0, len(mm))
	for _, m := range mm {
		res = append(res, m.View())
	}

	return res, nil
}
