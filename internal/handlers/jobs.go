package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claimstack/pricing-service/internal/jobs"
	"github.com/claimstack/pricing-service/internal/parsers"
	"github.com/claimstack/pricing-service/internal/parsers/csv"
	"github.com/claimstack/pricing-service/internal/parsers/xlsx"
	"github.com/claimstack/pricing-service/internal/results"
	"github.com/claimstack/pricing-service/internal/storage"
	"github.com/claimstack/pricing-service/internal/types"
)

const maxUploadBytes = 32 << 20

// submitRowsRequest is the JSON alternative to a file upload.
type submitRowsRequest struct {
	Rows []rowWire `json:"rows" binding:"required"`
}

type rowWire struct {
	RowIndex      int      `json:"row_index"`
	Description   string   `json:"description"`
	Qty           int      `json:"qty"`
	PurchasePrice *float64 `json:"purchase_price"`
	Brand         *string  `json:"brand"`
	Model         *string  `json:"model"`
	Room          *string  `json:"room"`
	AgeYears      *float64 `json:"age_years"`
	Condition     *string  `json:"condition"`
}

// SubmitJob accepts a claim inventory as a multipart file upload
// (field "file") or a JSON row list, starts a pricing job and returns
// its id.
func (h *Handlers) SubmitJob(c *gin.Context) {
	var (
		rows       []types.Row
		parseRes   *parsers.Result
		uploadName string
		uploadType string
		upload     []byte
	)

	if file, err := c.FormFile("file"); err == nil {
		if file.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
			return
		}
		content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
			return
		}

		parseRes, err = parseByExtension(content, file.Filename)
		if err != nil {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
			return
		}
		rows = parseRes.Rows
		upload = content
		uploadName = file.Filename
		uploadType = file.Header.Get("Content-Type")
	} else {
		var req submitRowsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected a file upload or a rows payload"})
			return
		}
		for i, w := range req.Rows {
			if strings.TrimSpace(w.Description) == "" {
				continue
			}
			qty := w.Qty
			if qty < 1 {
				qty = 1
			}
			brand := w.Brand
			if brand != nil && strings.EqualFold(*brand, types.NoBrand) {
				brand = nil
			}
			rows = append(rows, types.Row{
				RowIndex:      i,
				Description:   w.Description,
				Qty:           qty,
				PurchasePrice: w.PurchasePrice,
				Brand:         brand,
				Model:         w.Model,
				Room:          w.Room,
				AgeYears:      w.AgeYears,
				Condition:     w.Condition,
			})
		}
	}

	if len(rows) == 0 {
		resp := gin.H{"error": "no usable rows"}
		if parseRes != nil {
			resp["parse_errors"] = parseRes.Errors
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	jobID := h.Manager.Start(rows)
	h.Log.Info().Str("job_id", jobID).Int("rows", len(rows)).Msg("job submitted")

	if h.Storage != nil && upload != nil {
		key := storage.BuildUploadKey(jobID, uploadName)
		meta := &storage.Metadata{
			OriginalName: uploadName,
			ContentType:  uploadType,
			JobID:        jobID,
			UploadedAt:   time.Now(),
		}
		if err := h.Storage.Put(c.Request.Context(), key, upload, meta); err != nil {
			h.Log.Warn().Err(err).Str("filename", uploadName).Msg("failed to archive upload")
		}
	}

	resp := gin.H{"job_id": jobID, "rows": len(rows)}
	if parseRes != nil && len(parseRes.Errors) > 0 {
		resp["parse_errors"] = parseRes.Errors
	}
	c.JSON(http.StatusAccepted, resp)
}

func parseByExtension(content []byte, filename string) (*parsers.Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return xlsx.NewParser(xlsx.Options{}).Parse(content)
	case ".csv", ".tsv", ".txt":
		return csv.NewParser().Parse(content)
	default:
		return nil, errors.New("unsupported file type, expected .xlsx or .csv")
	}
}

// GetJob reports a job's status and progress.
func (h *Handlers) GetJob(c *gin.Context) {
	job, err := h.Manager.Get(c.Param("jobId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs returns every tracked job.
func (h *Handlers) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.Manager.List()})
}

// CancelJob aborts a running job. Partial results stay retrievable.
func (h *Handlers) CancelJob(c *gin.Context) {
	if err := h.Manager.Cancel(c.Param("jobId")); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}

// GetResults returns a job's pricing results ordered by row index.
func (h *Handlers) GetResults(c *gin.Context) {
	jr, err := h.Results.Get(c.Param("jobId"))
	if err != nil {
		if errors.Is(err, results.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "results not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, jr)
}
