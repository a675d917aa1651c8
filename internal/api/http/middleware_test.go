package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/observability"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return apperrors.NewConflict("ticket already exists", map[string]any{"ticket_number": "TKT-202603-00001"})
	})
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("boom")
	})
	app.Get("/fiber-error", func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusForbidden, "insufficient role")
	})
	return app
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, path string) (int, errorBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorEnvelope(t *testing.T) {
	app := newTestApp(t)

	status, body := call(t, app, "/conflict")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, apperrors.CodeConflict, body.Error.Code)
	assert.Equal(t, "TKT-202603-00001", body.Error.Details["ticket_number"])

	status, body = call(t, app, "/fiber-error")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, body.Error.Code)

	status, body = call(t, app, "/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, body.Error.Code)
}

func TestPanicRecovery(t *testing.T) {
	status, body := call(t, newTestApp(t), "/panic")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, apperrors.CodeInternal, body.Error.Code)
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestErrorMetricsUseRoutePatterns(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("item not found", map[string]any{"id": c.Params("id")})
	})

	for i := 0; i < 30; i++ {
		status, _ := call(t, app, fmt.Sprintf("/items/%d", i))
		require.Equal(t, http.StatusNotFound, status)
		status, _ = call(t, app, fmt.Sprintf("/random-%d", i))
		require.Equal(t, http.StatusNotFound, status)
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	paths := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "http_request_errors_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"/items/:id": 30, observability.UnmatchedRoute: 30}, paths)
}
