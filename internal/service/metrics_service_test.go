package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodPost, "/api/v1/schedules/generate", 200, 20*time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.ObserveGeneration("dp", "ok", 10*time.Millisecond, 120, true, 2)
	metrics.ObserveGeneration("dfs", "empty", 30*time.Millisecond, 8, false, 1)
	metrics.ObserveDBQuery("sections.list_by_course", 4*time.Millisecond)

	snap := metrics.Snapshot()
	assert.Equal(t, 0.5, snap.CacheHitRatio)
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.Equal(t, uint64(2), snap.Generations)
	assert.InDelta(t, 20.0, snap.AverageGenerationMs, 0.001)
	assert.Equal(t, uint64(1), snap.TruncatedSearches)
	assert.Equal(t, uint64(3), snap.ExcludedCourses)
	assert.Equal(t, uint64(1), snap.DBQueryCount)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCourseResolution("resolved")
	metrics.RecordCatalogItem("import_sections", false)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `course_section_resolutions_total{outcome="resolved"} 1`)
	assert.Contains(t, w.Body.String(), `catalog_job_items_total{job="import_sections",outcome="failed"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.ObserveGeneration("dp", "ok", time.Millisecond, 1, false, 0)
	metrics.RecordCourseResolution("failed")
	assert.Zero(t, metrics.Snapshot().Generations)

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
