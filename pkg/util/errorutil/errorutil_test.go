package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	sentinel := errors.New("event is full")

	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain", NewConflict("taken", nil), "CONFLICT", http.StatusConflict},
		{"wrapped domain", fmt.Errorf("join: %w", Wrap(sentinel, "CONFLICT", http.StatusConflict)), "CONFLICT", http.StatusConflict},
		{"fiber", fiber.NewError(http.StatusForbidden, "insufficient role"), "FORBIDDEN", http.StatusForbidden},
		{"no rows", fmt.Errorf("get user: %w", pgx.ErrNoRows), "NOT_FOUND", http.StatusNotFound},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			require.NotNil(t, got)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.HTTPStatus)
		})
	}

	assert.Nil(t, ToDomainError(nil))
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := errors.New("event is locked")
	err := Wrap(sentinel, "CONFLICT", http.StatusConflict)

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "event is locked", err.Message)
	assert.Equal(t, "event is locked", err.Error())
}
