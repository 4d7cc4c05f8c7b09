package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rolliedev/ticketflow/internal/observability"
	apperrors "github.com/rolliedev/ticketflow/pkg/util"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(metrics *observability.Metrics) *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (*http.Response, errorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body errorBody
	_ = json.Unmarshal(raw, &body)
	return resp, body
}

func TestErrorHandling_DomainErrorRendered(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidTransition("NEW", "CLOSED")
	})

	resp, body := doRequest(t, app, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInvalidTransition, body.Error.Code)
	assert.Equal(t, "NEW", body.Error.Details["currentStatus"])
	assert.Equal(t, "CLOSED", body.Error.Details["targetStatus"])
}

func TestErrorHandling_UnknownErrorBecomesInternal(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/oops", func(c *fiber.Ctx) error {
		return assert.AnError
	})

	resp, body := doRequest(t, app, http.MethodGet, "/oops")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInternalError, body.Error.Code)
	// The cause never leaks to the client.
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestErrorHandling_PanicRecovered(t *testing.T) {
	app := newTestApp(nil)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("handler exploded")
	})

	resp, body := doRequest(t, app, http.MethodGet, "/panic")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, apperrors.CodeInternalError, body.Error.Code)
}

func TestErrorHandling_SuccessPassesThrough(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString("fine")
	})

	resp, _ := doRequest(t, app, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	requests, errCounts := metrics.Snapshot()
	assert.NotEmpty(t, requests)
	assert.Empty(t, errCounts)
}

func TestErrorHandling_ErrorCounted(t *testing.T) {
	metrics := observability.NewMetrics()
	app := newTestApp(metrics)
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewForbidden("no")
	})

	resp, _ := doRequest(t, app, http.MethodGet, "/denied")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, errCounts := metrics.Snapshot()
	assert.Equal(t, int64(1), errCounts["/denied|GET|"+apperrors.CodeForbidden])
}
