package middleware_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/middleware"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
	"github.com/assessly/assessly-api/internal/session"
	"github.com/assessly/assessly-api/internal/utils"
)

func zerologNop() zerolog.Logger {
	return zerolog.Nop()
}

func setupSessionApp(t *testing.T) (*fiber.App, session.Store, models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	user := models.User{Email: "sam@example.com", FullName: "Sam", PasswordHash: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewRedisStore(client, time.Hour, zerologNop())
	users := repository.NewUserRepository(db)

	app := fiber.New()
	app.Get("/whoami", middleware.SessionProtected(sessions, users), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("user_id"),
			"role":    c.Locals("user_role"),
		})
	})

	return app, sessions, user
}

func TestSessionProtectedRejectsMissingCookie(t *testing.T) {
	app, _, _ := setupSessionApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var payload utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "authentication required", payload.Error)
}

func TestSessionProtectedRejectsUnknownToken(t *testing.T) {
	app, _, _ := setupSessionApp(t)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "not-a-session"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionProtectedResolvesIdentity(t *testing.T) {
	app, sessions, user := setupSessionApp(t)

	sess, err := sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		UserID uint   `json:"user_id"`
		Role   string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, user.ID, payload.UserID)
	require.Equal(t, string(models.RoleStudent), payload.Role)
}

func TestSessionProtectedRejectsDeletedSession(t *testing.T) {
	app, sessions, user := setupSessionApp(t)
	ctx := context.Background()

	sess, err := sessions.Create(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, sessions.Delete(ctx, sess.Token))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
