package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeProvider, "token endpoint unreachable")
	assert.Equal(t, "token endpoint unreachable: boom", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_CodePredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{NotFound("x"), IsNotFound},
		{Validation("x"), IsValidation},
		{Conflict("x"), IsConflict},
		{Provider("x"), IsProvider},
		{SilentAuthRequired("x"), IsSilentAuthRequired},
		{Directory("x"), IsDirectory},
		{Init("x"), IsInit},
	}
	for _, tc := range cases {
		assert.True(t, tc.pred(tc.err))
		assert.True(t, tc.pred(fmt.Errorf("wrapped: %w", tc.err)), "predicate must see through wrapping")
	}
	assert.False(t, IsSilentAuthRequired(Provider("x")))
}

func TestGetCodeAndField(t *testing.T) {
	assert.Equal(t, ErrCodeDirectory, GetCode(Directory("down")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, "email", GetField(ValidationField("email", "required")))
}

func TestWrap_NilCause(t *testing.T) {
	require.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	require.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	assert.True(t, IsNotFound(MapDBError(pgx.ErrNoRows)))
	assert.Equal(t, ErrCodeTimeout, GetCode(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, GetCode(MapDBError(context.Canceled)))

	unique := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (user_id)=(abc) already exists.",
	}
	mapped := MapDBError(unique)
	assert.True(t, IsConflict(mapped))
	assert.Equal(t, "user_id", GetField(mapped))

	notNull := &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "email"}
	assert.True(t, IsValidation(MapDBError(notNull)))

	plain := errors.New("unrelated")
	assert.Equal(t, plain, MapDBError(plain))
}
