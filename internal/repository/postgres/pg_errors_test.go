package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/tixcore/internal/domain"
	"github.com/kirinyoku/tixcore/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestTranslateDBErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, repository.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, repository.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, repository.ErrReferenced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateDBErr(tt.in), tt.want)
			assert.ErrorIs(t, wrapDBErr("op", tt.in), tt.want)
		})
	}

	other := errors.New("boom")
	assert.Same(t, other, translateDBErr(other))
	assert.Nil(t, translateDBErr(nil))
	assert.Nil(t, wrapDBErr("op", nil))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestPgTimeRoundTrip(t *testing.T) {
	tod := domain.TimeOfDay{Hour: 19, Minute: 30}
	pt := pgTime(tod)

	assert.True(t, pt.Valid)
	assert.Equal(t, tod, domain.TimeOfDayFromMicros(pt.Microseconds))
}
