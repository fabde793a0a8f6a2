package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/handler"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/config"
)

func TestRouterAuthorization(t *testing.T) {
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1"}
	tokens := service.NewTokenService(service.TokenConfig{Secret: "secret"})
	metrics := service.NewMetricsService()
	generator := service.NewScheduleGeneratorService(nil, nil, nil, nil, metrics, nil, nil, service.ScheduleGeneratorConfig{})

	router := newRouter(cfg, zap.NewNop(), routes{
		tokens:   tokens,
		metrics:  metrics,
		schedule: handler.NewScheduleGeneratorHandler(generator, nil),
		catalog:  handler.NewCatalogHandler(service.NewCatalogSyncService(nil, nil, nil, nil, metrics, nil, nil, service.CatalogSyncConfig{})),
		observe:  handler.NewMetricsHandler(metrics, nil),
	})

	student, err := tokens.Issue("s-1", models.RoleStudent, "")
	require.NoError(t, err)
	admin, err := tokens.Issue("a-1", models.RoleAdmin, "")
	require.NoError(t, err)

	cases := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"health is public", "/health", "", http.StatusOK},
		{"docs hidden in production", "/docs/index.html", "", http.StatusNotFound},
		{"results need a token", "/api/v1/schedules/results/x", "", http.StatusUnauthorized},
		{"unknown result", "/api/v1/schedules/results/x", student, http.StatusNotFound},
		{"summary is admin only", "/api/v1/metrics/summary", student, http.StatusForbidden},
		{"admin summary", "/api/v1/metrics/summary", admin, http.StatusOK},
		{"jobs disabled without queue", "/api/v1/catalog/jobs/j-1", admin, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
