package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusPerKind(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Unauthenticated("no session"), fiber.StatusUnauthorized},
		{Forbidden("not assigned"), fiber.StatusForbidden},
		{NotFound("module not found"), fiber.StatusNotFound},
		{Validation("title is required"), fiber.StatusBadRequest},
		{Internal(errors.New("boom")), fiber.StatusInternalServerError},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		require.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}

func TestMessageOfHidesInternalDetail(t *testing.T) {
	require.Equal(t, "internal error", MessageOf(Internal(errors.New("dial tcp: refused"))))
	require.Equal(t, "internal error", MessageOf(errors.New("raw failure")))
	require.Equal(t, "not assigned to module", MessageOf(Forbidden("not assigned to module")))
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := Forbidden("module is not a draft")
	wrapped := fmt.Errorf("publish module: %w", base)

	require.Equal(t, KindForbidden, KindOf(wrapped))
	require.Equal(t, "module is not a draft", MessageOf(wrapped))
}
