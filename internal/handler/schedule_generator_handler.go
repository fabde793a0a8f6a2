package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/middleware"
	"github.com/noah-isme/course-planner-api/internal/service"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Result(ctx context.Context, id string) (*dto.GenerateScheduleResponse, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, resultID string, query dto.ExportScheduleQuery) (*dto.ExportFile, error)
}

// ScheduleGeneratorHandler exposes schedule generation endpoints.
type ScheduleGeneratorHandler struct {
	service  scheduleGenerator
	exporter scheduleExporter
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService, exporter *service.ExportService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate ranked conflict-free schedules
// @Description Resolves the best open section per course, searches credit-feasible combinations and returns them ranked.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.GenerateScheduleRequest true "Candidate courses and credit target"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Stats.Cached)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

// Result godoc
// @Summary Fetch a previously generated result
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/results/{id} [get]
func (h *ScheduleGeneratorHandler) Result(c *gin.Context) {
	result, err := h.service.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Export one ranked schedule as CSV or PDF
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Result ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param rank query int false "1-based schedule rank"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /schedules/results/{id}/export [get]
func (h *ScheduleGeneratorHandler) Export(c *gin.Context) {
	var query dto.ExportScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
