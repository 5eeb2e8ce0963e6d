package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohitb777/conference-scheduler/internal/service"
	"github.com/mohitb777/conference-scheduler/pkg/response"
)

// ConfirmationHandler serves the token links mailed to authors and the
// admin-triggered send endpoints.
type ConfirmationHandler struct {
	confirmations *service.ConfirmationService
	exports       *service.ExportService
	metrics       *service.MetricsService
}

// NewConfirmationHandler constructs the handler.
func NewConfirmationHandler(confirmations *service.ConfirmationService, exports *service.ExportService, metrics *service.MetricsService) *ConfirmationHandler {
	return &ConfirmationHandler{confirmations: confirmations, exports: exports, metrics: metrics}
}

// Resolve godoc
// @Summary Resolve a confirmation token
// @Tags Confirmations
// @Produce json
// @Param token query string true "Confirmation token"
// @Param action query string true "confirm, deny or reschedule"
// @Success 200 {object} response.Envelope
// @Router /confirmations/resolve [get]
func (h *ConfirmationHandler) Resolve(c *gin.Context) {
	token := c.Query("token")
	action := service.ResolveAction(c.Query("action"))

	assignment, err := h.confirmations.Resolve(c.Request.Context(), token, action)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordConfirmation(string(action))
	h.exports.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, assignment, nil)
}

// SendEmails godoc
// @Summary Mail confirmation requests to every uncontacted assignment
// @Tags Confirmations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /confirmations/send-emails [post]
func (h *ConfirmationHandler) SendEmails(c *gin.Context) {
	report, err := h.confirmations.SendPendingEmails(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordEmail(report.Sent > 0)
	response.JSON(c, http.StatusOK, report, nil)
}

// SendConfirmation godoc
// @Summary Mail (or re-mail) the confirmation request for one paper
// @Tags Confirmations
// @Produce json
// @Param paperId path int true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /confirmations/send/{paperId} [post]
func (h *ConfirmationHandler) SendConfirmation(c *gin.Context) {
	paperID, ok := paperIDParam(c)
	if !ok {
		return
	}
	if err := h.confirmations.SendConfirmation(c.Request.Context(), paperID); err != nil {
		h.metrics.RecordEmail(false)
		response.Error(c, err)
		return
	}
	h.metrics.RecordEmail(true)
	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}
