package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/kinface/internal/domain"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", domain.ErrIdentityNotFound, 404, "IDENTITY_NOT_FOUND"},
		{"wrapped app error", fmt.Errorf("commit enrollment: %w", domain.ErrNoSamplesCaptured), 422, "NO_SAMPLES_CAPTURED"},
		{"app error with cause", domain.ErrDeviceUnavailable.WithError(errors.New("no such dir")), 503, "DEVICE_UNAVAILABLE"},
		{"fiber error", fiber.ErrMethodNotAllowed, 405, "HTTP_ERROR"},
		{"unknown error", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
			})
			app.Get("/test", func(c *fiber.Ctx) error {
				return tt.err
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestErrorHandler_HidesCause(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	app.Get("/test", func(c *fiber.Ctx) error {
		return domain.ErrInternal.WithError(errors.New("password=hunter2"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "hunter2")
}

func TestRecover(t *testing.T) {
	app := fiber.New()
	app.Use(Recover(slog.New(slog.NewTextHandler(io.Discard, nil))))
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("camera driver exploded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestLogger_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(Logger(slog.New(slog.NewJSONHandler(&buf, nil))))
	app.Get("/v1/identities", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/identities", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/v1/identities", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), entry["request_id"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestLogger_RendersHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))})
	app.Use(Logger(logger))
	app.Get("/v1/identities/:id", func(c *fiber.Ctx) error {
		return domain.ErrIdentityNotFound
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/identities/9", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/v1/identities", 200, slog.LevelInfo},
		{"/health", 200, slog.LevelDebug},
		{"/metrics", 200, slog.LevelDebug},
		{"/ready", 503, slog.LevelError},
		{"/v1/enroll", 422, slog.LevelWarn},
		{"/v1/recognize", 500, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.path, tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, levelFor(tt.path, tt.status))
		})
	}
}
