package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (t tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := tokenStub{
		"admin":   {UserID: "u-1", Role: models.RoleAdmin},
		"student": {UserID: "u-2", Role: models.RoleStudent},
	}
	router := gin.New()
	router.GET("/admin", JWT(tokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	return router
}

func TestJWTAndRoles(t *testing.T) {
	router := newAuthRouter()
	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token admin", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer student", http.StatusForbidden},
		{"bearer admin", http.StatusOK},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		router.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
	}
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/results/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/abc", nil))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="/results/:id"`)
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareCollapsesUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))

	for _, path := range []string{"/wp-admin", "/.env", "/metrics"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="unmatched"`)
	assert.NotContains(t, rec.Body.String(), "wp-admin")
	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
