package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mohitb777/conference-scheduler/internal/service"
	appErrors "github.com/mohitb777/conference-scheduler/pkg/errors"
	"github.com/mohitb777/conference-scheduler/pkg/response"
)

// ScheduleHandler manages assignment endpoints.
type ScheduleHandler struct {
	scheduler *service.SchedulerService
	exports   *service.ExportService
	metrics   *service.MetricsService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(scheduler *service.SchedulerService, exports *service.ExportService, metrics *service.MetricsService) *ScheduleHandler {
	return &ScheduleHandler{scheduler: scheduler, exports: exports, metrics: metrics}
}

// List godoc
// @Summary List the full schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	assignments, err := h.scheduler.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Get godoc
// @Summary Get the assignment for a paper
// @Tags Schedule
// @Produce json
// @Param paperId path int true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{paperId} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	paperID, ok := paperIDParam(c)
	if !ok {
		return
	}
	assignment, err := h.scheduler.Get(c.Request.Context(), paperID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Create godoc
// @Summary Schedule one or more papers
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body []service.ScheduleProposal true "Proposals"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var proposals []service.ScheduleProposal
	if err := c.ShouldBindJSON(&proposals); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.scheduler.Create(c.Request.Context(), proposals)
	if err != nil {
		h.metrics.RecordRuleViolation(appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordAssignmentOperation("create")
	h.exports.Invalidate(c.Request.Context())
	response.Created(c, created)
}

// Reschedule godoc
// @Summary Move a paper to a new slot
// @Tags Schedule
// @Accept json
// @Produce json
// @Param paperId path int true "Paper ID"
// @Param payload body service.RescheduleRequest true "New slot"
// @Success 200 {object} response.Envelope
// @Router /schedules/{paperId} [put]
func (h *ScheduleHandler) Reschedule(c *gin.Context) {
	paperID, ok := paperIDParam(c)
	if !ok {
		return
	}
	var req service.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	updated, err := h.scheduler.Reschedule(c.Request.Context(), paperID, req)
	if err != nil {
		h.metrics.RecordRuleViolation(appErrors.FromError(err).Code)
		response.Error(c, err)
		return
	}
	h.metrics.RecordAssignmentOperation("reschedule")
	h.exports.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, updated, nil)
}

// Delete godoc
// @Summary Remove a paper's assignment
// @Tags Schedule
// @Param paperId path int true "Paper ID"
// @Success 204
// @Router /schedules/{paperId} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	paperID, ok := paperIDParam(c)
	if !ok {
		return
	}
	if err := h.scheduler.Delete(c.Request.Context(), paperID); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordAssignmentOperation("delete")
	h.exports.Invalidate(c.Request.Context())
	response.NoContent(c)
}

// CheckConflicts godoc
// @Summary Dry-run a batch against the scheduling rules
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body []service.ScheduleProposal true "Proposals"
// @Success 200 {object} response.Envelope
// @Router /schedules/check-conflicts [post]
func (h *ScheduleHandler) CheckConflicts(c *gin.Context) {
	var proposals []service.ScheduleProposal
	if err := c.ShouldBindJSON(&proposals); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.scheduler.Validate(c.Request.Context(), proposals); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"valid": true}, nil)
}

// CheckAvailability godoc
// @Summary Check whether a slot is free
// @Tags Schedule
// @Produce json
// @Param date query string true "Conference day"
// @Param session query string true "Session"
// @Param timeSlot query string true "Time slot"
// @Success 200 {object} response.Envelope
// @Router /schedules/check-availability [get]
func (h *ScheduleHandler) CheckAvailability(c *gin.Context) {
	date := c.Query("date")
	session := c.Query("session")
	timeSlot := c.Query("timeSlot")
	if date == "" || session == "" || timeSlot == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingField, "date, session and timeSlot are required"))
		return
	}
	availability, err := h.scheduler.CheckAvailability(c.Request.Context(), date, session, timeSlot)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// SessionCapacity godoc
// @Summary Report session occupancy
// @Tags Schedule
// @Produce json
// @Param date query string true "Conference day"
// @Param session query string true "Session"
// @Success 200 {object} response.Envelope
// @Router /schedules/session-capacity [get]
func (h *ScheduleHandler) SessionCapacity(c *gin.Context) {
	date := c.Query("date")
	session := c.Query("session")
	if date == "" || session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingField, "date and session are required"))
		return
	}
	occupancy, err := h.scheduler.Occupancy(c.Request.Context(), date, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occupancy, nil)
}

// AvailableSlots godoc
// @Summary List slot availability for a conference day
// @Tags Schedule
// @Produce json
// @Param date query string true "Conference day"
// @Success 200 {object} response.Envelope
// @Router /schedules/available-slots [get]
func (h *ScheduleHandler) AvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingField, "date is required"))
		return
	}
	options, err := h.scheduler.AvailableSlots(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

func paperIDParam(c *gin.Context) (int64, bool) {
	paperID, err := strconv.ParseInt(c.Param("paperId"), 10, 64)
	if err != nil || paperID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "paperId must be a positive integer"))
		return 0, false
	}
	return paperID, true
}
