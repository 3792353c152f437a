// Package warmer materializes the empty-criteria dashboard into the snapshot
// store. It runs offline; the request path only ever reads snapshots.
package warmer

import (
	"context"
	"errors"
	"time"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/engine"
	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/models"
)

// ErrNoFacts is returned when the fact store holds nothing to warm.
var ErrNoFacts = errors.New("fact store is empty, nothing to warm")

// Warmer computes and installs dashboard snapshots.
type Warmer struct {
	facts     interfaces.FactStore
	snapshots interfaces.SnapshotStore
	svc       *engine.Service
	logger    *common.Logger
}

// New wires a Warmer. The service must be cache-free so the snapshot is
// always computed live.
func New(facts interfaces.FactStore, snapshots interfaces.SnapshotStore, svc *engine.Service, logger *common.Logger) *Warmer {
	return &Warmer{
		facts:     facts,
		snapshots: snapshots,
		svc:       svc,
		logger:    logger,
	}
}

// Run warms the snapshot for the latest fact date and returns that date.
func (w *Warmer) Run(ctx context.Context) (time.Time, error) {
	latest, ok, err := w.facts.LatestFactDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ErrNoFacts
	}
	return latest, w.WarmDate(ctx, latest)
}

// WarmDate computes the full dashboard for the given date and replaces that
// date's snapshot wholesale.
func (w *Warmer) WarmDate(ctx context.Context, date time.Time) error {
	started := time.Now()
	snap, err := w.svc.ComputeSnapshot(ctx, date)
	if err != nil {
		return err
	}
	if err := w.snapshots.Replace(ctx, snap.AsOfDate, snap); err != nil {
		return err
	}
	w.logger.Info().
		Str("date", snap.AsOfDate.Format(models.DateFormat)).
		Str("duration", time.Since(started).String()).
		Int("clients", len(snap.ClientBalances)).
		Int("funds", len(snap.FundBalances)).
		Int("accounts", len(snap.AccountDetails)).
		Msg("Snapshot warmed")
	return nil
}
