package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/config"
	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/handler"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
	"github.com/evalhub/evalhub-api/internal/router"
	"github.com/evalhub/evalhub-api/internal/service"
)

func setupNotificationApp(t *testing.T) (*fiber.App, service.NotificationService) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	svc := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		NotificationHandler: handler.NewNotificationHandler(svc, logger, time.Second),
		JWTMiddleware:       testJWTStub(),
	})

	return app, svc
}

// testJWTStub mirrors the JWT middleware contract by reading the test headers
// into the locals the handlers expect.
func testJWTStub() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return c.SendStatus(fiber.StatusUnauthorized)
			}
			c.Locals("user_id", uint(parsed))
		}
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	}
}

func decodeEnvelope(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	require.NoError(t, resp.Body.Close())
}

func TestNotificationMarkReadOverHTTP(t *testing.T) {
	app, svc := setupNotificationApp(t)

	owner := models.User{ID: 5, Role: models.RoleStudent}
	stranger := models.User{ID: 6, Role: models.RoleStudent}

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  owner.ID,
		Type:    "submission.evaluated",
		Message: "Your submission has been graded",
	})
	require.NoError(t, err)

	// Unknown ids and other users' notifications both read as absent.
	resp := doJSON(t, app, "PATCH", "/api/v1/notifications/999/read", owner, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/notifications/%d/read", published.ID), stranger, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.NoError(t, resp.Body.Close())

	resp = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/notifications/%d/read", published.ID), owner, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Success bool                     `json:"success"`
		Data    dto.NotificationResponse `json:"data"`
	}
	decodeEnvelope(t, resp, &envelope)
	require.True(t, envelope.Success)
	require.True(t, envelope.Data.Read)
}
