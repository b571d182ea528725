package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/altavia/airways/internal/repository"
)

func TestTranslateDBErr(t *testing.T) {
	assert.NoError(t, translateDBErr(nil))

	assert.ErrorIs(t, translateDBErr(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, translateDBErr(fmt.Errorf("scan: %w", pgx.ErrNoRows)), repository.ErrNotFound)

	unique := &pgconn.PgError{Code: "23505"}
	assert.ErrorIs(t, translateDBErr(unique), repository.ErrConflict)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateDBErr(other))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsRetryable(fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"})))

	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
