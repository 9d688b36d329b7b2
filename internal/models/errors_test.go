package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForCode(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		CodeValidation:          400,
		CodeInvalidCredentials:  401,
		CodePostNotExisted:      404,
		CodeNotOwnCommentOrPost: 403,
		CodeUserMailExisted:     409,
		CodeNotUpvoteYet:        400,
		"SOMETHING_ELSE":        500,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusForCode(code), code)
	}
}

func TestAsAppError(t *testing.T) {
	t.Parallel()

	orig := NewAppError(CodeNotOwnPost, "not yours")
	wrapped := fmt.Errorf("update: %w", orig)
	assert.Same(t, orig, AsAppError(wrapped))

	plain := AsAppError(errors.New("boom"))
	assert.Equal(t, CodeInternal, plain.Code)
	assert.EqualError(t, plain.Unwrap(), "boom")
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/fields", func(c *fiber.Ctx) error {
		return RespondWithError(c, 400, NewFieldValidationError(map[string]string{"mail": "must be a valid email"}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, 500, NewInternalError(errors.New("db password leaked")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fields", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	var body map[string]any
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, CodeValidation, body["code"])
	assert.Equal(t, map[string]any{"mail": "must be a valid email"}, body["details"])

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "leaked")
}

func TestNewNotFoundError_Codes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodePostNotExisted, NewNotFoundError("Post", 1).Code)
	assert.Equal(t, CodeUserNotExisted, NewNotFoundError("User", 1).Code)
	assert.Equal(t, CodeCommentNotFound, NewNotFoundError("Comment", 1).Code)
	assert.Equal(t, CodeNotFound, NewNotFoundError("Widget", 1).Code)
	assert.Equal(t, 404, NewNotFoundError("Post", 1).Status())
}
