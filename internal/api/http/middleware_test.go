package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/parking-service/internal/observability"
	apperrors "github.com/spec-kit/parking-service/pkg/util/errorutil"
)

func TestRequestLoggerSeesMappedStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("thing", nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var logged int64 = -1
	for _, entry := range logs.All() {
		if entry.Message != "request" {
			continue
		}
		for _, field := range entry.Context {
			if field.Key == "status" {
				logged = field.Integer
			}
		}
	}
	assert.EqualValues(t, fiber.StatusNotFound, logged)
}

func TestErrorMiddlewareMapsFiberErrors(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/nope", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnauthorized, "token required")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
