// Package handlers is the gin surface over the pricing core: job
// submission, status, results and export.
package handlers

import (
	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/jobs"
	"github.com/claimstack/pricing-service/internal/results"
	"github.com/claimstack/pricing-service/internal/storage"
)

// Handlers bundles the dependencies the HTTP surface needs.
type Handlers struct {
	Manager *jobs.Manager
	Results *results.Store
	Storage storage.Storage

	// LLMCache and SearchCache are exposed read-only for the stats
	// endpoint.
	LLMCache    *cache.Cache
	SearchCache *cache.Cache

	Log zerolog.Logger
}

// New builds the handler set.
func New(manager *jobs.Manager, res *results.Store, store storage.Storage, llmCache, searchCache *cache.Cache, log zerolog.Logger) *Handlers {
	return &Handlers{
		Manager:     manager,
		Results:     res,
		Storage:     store,
		LLMCache:    llmCache,
		SearchCache: searchCache,
		Log:         log.With().Str("component", "http").Logger(),
	}
}
