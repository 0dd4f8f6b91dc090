package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/assessly/assessly-api/internal/utils"
)

func TestSendJSONDefaultsToOK(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendJSON(c, 0, map[string]string{"hello": "world"})
	})

	resp := performRequest(t, app)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]string
	decode(t, resp, &payload)
	require.Equal(t, "world", payload["hello"])
}

func TestSendErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusForbidden, "not assigned to this module")
	})

	resp := performRequest(t, app)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var payload utils.ErrorResponse
	decode(t, resp, &payload)
	require.Equal(t, "not assigned to this module", payload.Error)
}

func performRequest(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
