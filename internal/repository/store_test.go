package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	err := mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err = mapError(dup)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)

	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23503"}), ErrInvalidEntity)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23514"}), ErrInvalidEntity)

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
	assert.Equal(t, error(&pgconn.PgError{Code: "40001"}), mapError(&pgconn.PgError{Code: "40001"}))
}

func TestDeleted(t *testing.T) {
	n, err := deleted(pgconn.NewCommandTag("DELETE 3"), nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = deleted(pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}
