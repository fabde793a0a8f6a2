package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/service"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type catalogSyncer interface {
	EnqueueSectionImport(ctx context.Context, req dto.ImportSectionsRequest) (*dto.JobAcceptedResponse, error)
	EnqueueRatingSync(ctx context.Context, req dto.SyncRatingsRequest) (*dto.JobAcceptedResponse, error)
	JobStatus(ctx context.Context, id string) (*jobs.Status, error)
}

// CatalogHandler exposes administrative catalog synchronisation endpoints.
type CatalogHandler struct {
	service catalogSyncer
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogSyncService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ImportSections godoc
// @Summary Queue a section import from the registrar catalog
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ImportSectionsRequest true "Course IDs to import"
// @Success 202 {object} response.Envelope
// @Router /catalog/sections/import [post]
func (h *CatalogHandler) ImportSections(c *gin.Context) {
	var req dto.ImportSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	accepted, err := h.service.EnqueueSectionImport(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, accepted)
}

// SyncRatings godoc
// @Summary Queue an instructor rating refresh
// @Description An empty instructor list refreshes every instructor currently referenced by a section.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SyncRatingsRequest false "Instructor names"
// @Success 202 {object} response.Envelope
// @Router /catalog/ratings/sync [post]
func (h *CatalogHandler) SyncRatings(c *gin.Context) {
	var req dto.SyncRatingsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
			return
		}
	}
	accepted, err := h.service.EnqueueRatingSync(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, accepted)
}

// JobStatus godoc
// @Summary Inspect a catalog job
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/jobs/{id} [get]
func (h *CatalogHandler) JobStatus(c *gin.Context) {
	status, err := h.service.JobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
