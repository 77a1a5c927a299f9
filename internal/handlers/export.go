package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/claimstack/pricing-service/internal/export"
	"github.com/claimstack/pricing-service/internal/results"
)

// ExportResults streams a job's results as an XLSX workbook, or as CSV
// when ?format=csv is given.
func (h *Handlers) ExportResults(c *gin.Context) {
	jobID := c.Param("jobId")
	jr, err := h.Results.Get(jobID)
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "results not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pricing-%s.csv"`, jobID))
		c.Header("Content-Type", "text/csv")
		if err := export.WriteCSV(c.Writer, jr.Rows); err != nil {
			h.Log.Error().Err(err).Str("job_id", jobID).Msg("export write failed")
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pricing-%s.xlsx"`, jobID))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := export.WriteXLSX(c.Writer, jr.Rows); err != nil {
		h.Log.Error().Err(err).Str("job_id", jobID).Msg("export write failed")
	}
}
