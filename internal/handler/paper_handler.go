package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mohitb777/conference-scheduler/internal/models"
	"github.com/mohitb777/conference-scheduler/internal/service"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
	"github.com/mohitb777/conference-scheduler/pkg/response"
)

// PaperHandler manages paper intake and query endpoints.
type PaperHandler struct {
	papers *service.PaperService
}

// NewPaperHandler constructs the handler.
func NewPaperHandler(papers *service.PaperService) *PaperHandler {
	return &PaperHandler{papers: papers}
}

// List godoc
// @Summary List papers
// @Tags Papers
// @Produce json
// @Param track query string false "Filter by track"
// @Param unscheduled query bool false "Only papers without an assignment"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	var filter models.PaperFilter
	filter.Track = c.Query("track")
	filter.Unscheduled = c.Query("unscheduled") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	papers, pagination, err := h.papers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, papers, pagination)
}

// Get godoc
// @Summary Get a paper
// @Tags Papers
// @Produce json
// @Param paperId path int true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{paperId} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	paperID, ok := paperIDParam(c)
	if !ok {
		return
	}
	paper, err := h.papers.Get(c.Request.Context(), paperID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, paper, nil)
}

// Create godoc
// @Summary Register an accepted paper
// @Tags Papers
// @Accept json
// @Produce json
// @Param payload body service.CreatePaperRequest true "Paper payload"
// @Success 201 {object} response.Envelope
// @Router /papers [post]
func (h *PaperHandler) Create(c *gin.Context) {
	var req service.CreatePaperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	paper, err := h.papers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, paper)
}
