package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}

// HealthCheck reports liveness and the retained job count.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
		Jobs:   h.Results.Len(),
	})
}

// CacheStats exposes hit/miss counters for both process caches.
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"llm":    h.LLMCache.Stats(),
		"search": h.SearchCache.Stats(),
	})
}
