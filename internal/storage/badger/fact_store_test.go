package badger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/config"
	"github.com/duggasco/CET/internal/models"
)

func setupTestDB(t *testing.T) (*CETDB, func()) {
	t.Helper()

	dir := t.TempDir()
	logger := common.NewSilentLogger()

	cfg := &config.BadgerConfig{Path: dir}
	db, err := NewCETDB(logger, cfg)
	if err != nil {
		t.Fatalf("failed to create test DB: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func seedFactStore(t *testing.T, db *CETDB) *FactStore {
	t.Helper()
	store := NewFactStore(db, common.NewSilentLogger())
	ctx := context.Background()

	if err := store.PutClientLinks(ctx, []models.ClientLink{
		{AccountID: "A1", ClientID: "C1", ClientName: "Alpha Corp"},
		{AccountID: "A2", ClientID: "C2", ClientName: "Beta LLC"},
	}); err != nil {
		t.Fatalf("PutClientLinks failed: %v", err)
	}
	if err := store.PutFunds(ctx, []models.FundInfo{
		{FundName: "Global Equity Fund", Ticker: "GEF"},
	}); err != nil {
		t.Fatalf("PutFunds failed: %v", err)
	}
	if err := store.PutFacts(ctx, []models.BalanceFact{
		{AccountID: "A1", FundName: "Global Equity Fund", BalanceDate: day(t, "2024-01-01"), Balance: decimal.NewFromInt(100)},
		{AccountID: "A2", FundName: "Global Equity Fund", BalanceDate: day(t, "2024-01-01"), Balance: decimal.NewFromInt(50)},
		{AccountID: "A1", FundName: "Global Equity Fund", BalanceDate: day(t, "2024-04-15"), Balance: decimal.NewFromInt(120)},
		{AccountID: "A3", FundName: "Unmapped Fund", BalanceDate: day(t, "2024-04-15"), Balance: decimal.NewFromInt(10)},
	}); err != nil {
		t.Fatalf("PutFacts failed: %v", err)
	}
	return store
}

func TestFactStore_FactsAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	rows, err := store.FactsAt(ctx, models.Predicate{}, day(t, "2024-01-01"))
	if err != nil {
		t.Fatalf("FactsAt failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Without the client join, rows carry facts only.
	if rows[0].ClientID != "" {
		t.Errorf("expected empty client id without join, got %s", rows[0].ClientID)
	}
}

func TestFactStore_ClientJoinDropsUnmappedAccounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	pred := models.Predicate{}.RequireClientLink()
	rows, err := store.FactsAt(ctx, pred, day(t, "2024-04-15"))
	if err != nil {
		t.Fatalf("FactsAt failed: %v", err)
	}
	// A3 has no client mapping and is dropped.
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].AccountID != "A1" || rows[0].ClientName != "Alpha Corp" {
		t.Errorf("unexpected joined row: %+v", rows[0])
	}
}

func TestFactStore_FundJoinDerivesTicker(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	pred := models.Predicate{}.RequireFundInfo()
	rows, err := store.FactsAt(ctx, pred, day(t, "2024-04-15"))
	if err != nil {
		t.Fatalf("FactsAt failed: %v", err)
	}
	tickers := map[string]string{}
	for _, r := range rows {
		tickers[r.FundName] = r.FundTicker
	}
	if tickers["Global Equity Fund"] != "GEF" {
		t.Errorf("expected directory ticker GEF, got %s", tickers["Global Equity Fund"])
	}
	if tickers["Unmapped Fund"] != "UNM" {
		t.Errorf("expected derived ticker UNM, got %s", tickers["Unmapped Fund"])
	}
}

func TestFactStore_FactsRange(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	rows, err := store.FactsRange(ctx, models.Predicate{}, day(t, "2024-01-01"), day(t, "2024-04-15"))
	if err != nil {
		t.Fatalf("FactsRange failed: %v", err)
	}
	if len(rows) != 4 {
		t.Errorf("expected 4 rows, got %d", len(rows))
	}

	rows, err = store.FactsRange(ctx, models.Predicate{}, day(t, "2024-02-01"), day(t, "2024-03-01"))
	if err != nil {
		t.Fatalf("FactsRange failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows in empty window, got %d", len(rows))
	}
}

func TestFactStore_ResolveDate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	got, ok, err := store.ResolveDate(ctx, day(t, "2024-03-10"))
	if err != nil {
		t.Fatalf("ResolveDate failed: %v", err)
	}
	if !ok || !got.Equal(day(t, "2024-01-01")) {
		t.Errorf("expected 2024-01-01, got %v ok=%v", got, ok)
	}

	_, ok, err = store.ResolveDate(ctx, day(t, "2023-12-31"))
	if err != nil {
		t.Fatalf("ResolveDate failed: %v", err)
	}
	if ok {
		t.Error("expected no resolvable date before the first fact")
	}
}

func TestFactStore_LatestFactDate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	got, ok, err := store.LatestFactDate(ctx)
	if err != nil {
		t.Fatalf("LatestFactDate failed: %v", err)
	}
	if !ok || !got.Equal(day(t, "2024-04-15")) {
		t.Errorf("expected 2024-04-15, got %v ok=%v", got, ok)
	}
}

func TestFactStore_LatestFactDateEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := NewFactStore(db, common.NewSilentLogger())

	_, ok, err := store.LatestFactDate(context.Background())
	if err != nil {
		t.Fatalf("LatestFactDate failed: %v", err)
	}
	if ok {
		t.Error("expected empty store to have no latest date")
	}
}

func TestFactStore_UpsertReplacesFact(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	store := seedFactStore(t, db)
	ctx := context.Background()

	// Re-putting the same (account, fund, date) replaces the balance.
	if err := store.PutFacts(ctx, []models.BalanceFact{
		{AccountID: "A1", FundName: "Global Equity Fund", BalanceDate: day(t, "2024-04-15"), Balance: decimal.NewFromInt(999)},
	}); err != nil {
		t.Fatalf("PutFacts failed: %v", err)
	}

	rows, err := store.FactsAt(ctx, models.Predicate{}, day(t, "2024-04-15"))
	if err != nil {
		t.Fatalf("FactsAt failed: %v", err)
	}
	for _, r := range rows {
		if r.AccountID == "A1" && !r.Balance.Equal(decimal.NewFromInt(999)) {
			t.Errorf("expected replaced balance 999, got %s", r.Balance)
		}
	}
}
