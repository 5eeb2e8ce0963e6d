package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohitb777/conference-scheduler/internal/catalog"
	"github.com/mohitb777/conference-scheduler/pkg/response"
)

// CatalogHandler exposes the fixed session reference data.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Sessions godoc
// @Summary List the session catalog
// @Tags Catalog
// @Produce json
// @Param date query string false "Filter by conference day"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *CatalogHandler) Sessions(c *gin.Context) {
	if date := c.Query("date"); date != "" {
		var out []catalog.Session
		for _, entry := range h.catalog.Sessions() {
			if entry.Date == date {
				out = append(out, entry)
			}
		}
		response.JSON(c, http.StatusOK, out, nil)
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.Sessions(), nil)
}

// Tracks godoc
// @Summary List the conference tracks
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tracks [get]
func (h *CatalogHandler) Tracks(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Tracks(), nil)
}
