package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain error passes through", NewValidationError("bad", nil), CodeValidation, http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("wrap: %w", NewConflict("dup", nil)), CodeConflict, http.StatusConflict},
		{"fiber error", fiber.NewError(http.StatusForbidden, "nope"), CodeForbidden, http.StatusForbidden},
		{"no rows", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"anything else", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Nil(t, ToDomainError(nil))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewNotFound("ticket", nil))
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := ToDomainError(errors.New("db password leaked"))
	assert.Equal(t, "internal server error", err.Message)
	assert.ErrorContains(t, err, "db password leaked")
}
