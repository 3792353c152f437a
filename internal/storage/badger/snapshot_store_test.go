package badger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/models"
)

func TestSnapshotStore_ReplaceAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewSnapshotStore(db, common.NewSilentLogger())
	ctx := context.Background()

	date := day(t, "2024-04-15")
	zero := 0.0
	snap := &models.CacheSnapshot{
		AsOfDate:       date,
		MaterializedAt: time.Now().UTC().Truncate(time.Second),
		KPIMetrics: models.KPIMetrics{
			ActiveClients: 2,
			TotalAUM:      decimal.NewFromInt(390),
		},
		ClientBalances: []models.ClientBalance{
			{ClientID: "C1", ClientName: "Alpha Corp", TotalBalance: decimal.NewFromInt(330), QTDChange: &zero},
			{ClientID: "C2", ClientName: "Beta LLC", TotalBalance: decimal.NewFromInt(60)},
		},
	}

	if err := store.Replace(ctx, date, snap); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, ok, err := store.Snapshot(ctx, date)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a snapshot")
	}
	if got.KPIMetrics.ActiveClients != 2 || !got.KPIMetrics.TotalAUM.Equal(decimal.NewFromInt(390)) {
		t.Errorf("unexpected KPIs: %+v", got.KPIMetrics)
	}
	if len(got.ClientBalances) != 2 {
		t.Fatalf("expected 2 client rows, got %d", len(got.ClientBalances))
	}

	// A concrete 0 change survives storage as 0, not null.
	if got.ClientBalances[0].QTDChange == nil || *got.ClientBalances[0].QTDChange != 0 {
		t.Errorf("expected zero QTD change to round-trip, got %v", got.ClientBalances[0].QTDChange)
	}
	if got.ClientBalances[1].QTDChange != nil {
		t.Errorf("expected null QTD change to round-trip, got %v", *got.ClientBalances[1].QTDChange)
	}
}

func TestSnapshotStore_MissingDate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewSnapshotStore(db, common.NewSilentLogger())

	_, ok, err := store.Snapshot(context.Background(), day(t, "2024-04-15"))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if ok {
		t.Error("expected no snapshot for unwarmed date")
	}
}

func TestSnapshotStore_ReplaceOverwritesWholesale(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewSnapshotStore(db, common.NewSilentLogger())
	ctx := context.Background()

	date := day(t, "2024-04-15")
	first := &models.CacheSnapshot{
		AsOfDate: date,
		ClientBalances: []models.ClientBalance{
			{ClientID: "C1"}, {ClientID: "C2"}, {ClientID: "C3"},
		},
	}
	if err := store.Replace(ctx, date, first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	second := &models.CacheSnapshot{
		AsOfDate:       date,
		ClientBalances: []models.ClientBalance{{ClientID: "C9"}},
	}
	if err := store.Replace(ctx, date, second); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, ok, err := store.Snapshot(ctx, date)
	if err != nil || !ok {
		t.Fatalf("Snapshot failed: ok=%v err=%v", ok, err)
	}
	if len(got.ClientBalances) != 1 || got.ClientBalances[0].ClientID != "C9" {
		t.Errorf("expected the second snapshot only, got %+v", got.ClientBalances)
	}
}
