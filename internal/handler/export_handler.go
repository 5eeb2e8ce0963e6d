package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohitb777/conference-scheduler/internal/service"
	"github.com/mohitb777/conference-scheduler/pkg/response"
)

// ExportHandler streams the schedule as CSV or PDF downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// CSV godoc
// @Summary Download the schedule as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Router /exports/schedule.csv [get]
func (h *ExportHandler) CSV(c *gin.Context) {
	data, err := h.exports.ExportCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// PDF godoc
// @Summary Download the schedule as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Router /exports/schedule.pdf [get]
func (h *ExportHandler) PDF(c *gin.Context) {
	data, err := h.exports.ExportPDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
