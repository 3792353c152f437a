// Package cache routes eligible dashboard requests to the pre-materialized
// snapshot store. Eligibility is deliberately narrow: any filter criterion or
// cursor sends the request to the live compute path.
package cache

import (
	"context"
	"time"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/models"
)

// ShouldUse reports whether a request may be served from the materialized
// cache: no filter criteria of any kind and no pagination cursors. A bare
// page size does not disqualify the request; the paginator slices the cached
// lists after the fact.
func ShouldUse(c models.FilterCriteria, hasCursor bool) bool {
	return c.IsEmpty() && !hasCursor
}

// Gateway reads materialized snapshots and degrades to a cache miss on any
// store failure, so an unavailable cache costs latency, never an error.
type Gateway struct {
	snapshots interfaces.SnapshotStore
	logger    *common.Logger
}

func NewGateway(snapshots interfaces.SnapshotStore, logger *common.Logger) *Gateway {
	return &Gateway{snapshots: snapshots, logger: logger}
}

// Lookup fetches the snapshot materialized for the given resolved date.
// Errors are logged and reported as a miss.
func (g *Gateway) Lookup(ctx context.Context, date time.Time) (*models.CacheSnapshot, bool) {
	snap, ok, err := g.snapshots.Snapshot(ctx, date)
	if err != nil {
		g.logger.Warn().
			Str("date", date.Format(models.DateFormat)).
			Str("error", err.Error()).
			Msg("Snapshot lookup failed, falling back to live compute")
		return nil, false
	}
	return snap, ok
}
