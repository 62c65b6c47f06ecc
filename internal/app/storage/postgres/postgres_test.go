package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/DATA-DOG/go-sqlmock"
	pg "github.com/lib/pq"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rewards/internal/app/apperr"
	"testing"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db, mock
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"deadline", fmt.Errorf("select: %w", context.DeadlineExceeded), true},
		{"lock not available", &pg.Error{Code: "55P03"}, true},
		{"serialization failure", &pg.Error{Code: "40001"}, true},
		{"deadlock", &pg.Error{Code: "40P01"}, true},
		{"connection failure", &pg.Error{Code: "08006"}, true},
		{"admin shutdown", &pg.Error{Code: "57P01"}, true},
		{"breaker open", gobreaker.ErrOpenState, true},
		{"unique violation", &pg.Error{Code: "23505"}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.transient, apperr.Retryable(err))
			assert.True(t, errors.Is(err, tt.err))
		})
	}

	assert.Nil(t, classify(nil))
}
