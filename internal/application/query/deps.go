// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"

	"github.com/studioroll/attendance-hub/internal/application"
	"github.com/studioroll/attendance-hub/pkg/logger"
)

// SummaryCache is an optional read-through cache for weekly summaries.
// A nil cache disables caching entirely; lookups fall through to the
// snapshot, never the reverse.
type SummaryCache interface {
	// Get returns the cached summary for a week, or false on miss.
	Get(ctx context.Context, weekID string) (*WeeklySummaryResult, bool)

	// Set stores a freshly computed summary. Best effort.
	Set(ctx context.Context, weekID string, summary *WeeklySummaryResult)
}

// Deps carries the shared dependencies of all query handlers.
type Deps struct {
	State     *application.State
	Summaries SummaryCache
	Logger    *logger.Logger
}

func (d Deps) log() *logger.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logger.Default()
}
