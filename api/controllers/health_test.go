package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivaflower/storefront-backend/pkg/config"
	"github.com/vivaflower/storefront-backend/pkg/logger"
	"github.com/vivaflower/storefront-backend/pkg/types"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func TestHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	HealthLive(testConfig()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-VivaFlower-Env"))
}

func TestHealthReadyAllUp(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	resp := httptest.NewRecorder()

	HealthReady(testConfig(), logger.Nop(), map[string]Pinger{"db": up, "redis": up, "pubsub": nil}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	checks := body.Data.(map[string]any)["checks"].(map[string]any)
	require.Equal(t, "up", checks["db"])
	require.NotContains(t, checks, "pubsub")
}

func TestHealthReadyReportsFailure(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	resp := httptest.NewRecorder()

	HealthReady(testConfig(), logger.Nop(), map[string]Pinger{"db": up, "redis": down}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, map[string]any{"db": "up", "redis": "down"}, body.Error.Details)
}
