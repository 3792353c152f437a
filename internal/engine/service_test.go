package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/models"
	"github.com/duggasco/CET/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.FactStore) {
	t.Helper()
	store := newTestStore(t)
	svc := NewService(store, nil, 1_000_000, common.NewSilentLogger())
	return svc, store
}

func TestGetDashboardDefaultsToLatestFactDate(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{IncludeCharts: true})
	require.NoError(t, err)
	require.Equal(t, "2024-04-15", resp.Metadata.AsOfDate)
	require.Equal(t, models.ResponseSourceLive, resp.Metadata.Source)
	require.Len(t, resp.ClientBalances, 2)
	require.Len(t, resp.FundBalances, 2)
	require.Len(t, resp.AccountDetails, 3)
	require.NotNil(t, resp.Charts)
	require.Nil(t, resp.Pagination)
}

func TestGetDashboardResolvesBackwards(t *testing.T) {
	svc, _ := newTestService(t)

	// No facts on 2024-04-10; the nearest earlier snapshot serves.
	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{Date: "2024-04-10"})
	require.NoError(t, err)
	require.Equal(t, "2024-04-01", resp.Metadata.AsOfDate)
}

func TestGetDashboardInvalidDate(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetDashboard(context.Background(), DashboardRequest{Date: "not-a-date"})
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "not-a-date", invalid.Value)
}

func TestGetDashboardEmptyStore(t *testing.T) {
	svc := NewService(memory.NewFactStore(), nil, 1_000_000, common.NewSilentLogger())

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{IncludeCharts: true})
	require.NoError(t, err)
	require.Empty(t, resp.Metadata.AsOfDate)
	require.Empty(t, resp.ClientBalances)
	require.Empty(t, resp.FundBalances)
	require.Empty(t, resp.AccountDetails)
	require.Equal(t, 0, resp.KPIMetrics.ActiveClients)
	require.NotNil(t, resp.Charts)
	require.Empty(t, resp.Charts.RecentHistory)
}

func TestGetDashboardIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	req := DashboardRequest{
		Criteria:      models.FilterCriteria{FundNames: []string{"Global Equity Fund"}},
		IncludeCharts: true,
	}

	first, err := svc.GetDashboard(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.GetDashboard(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSelectionSourceKeepsClientListUnfiltered(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{
		Criteria: models.FilterCriteria{
			ClientIDs:       []string{"C1"},
			SelectionSource: models.DimensionClient,
		},
	})
	require.NoError(t, err)

	// The clicked-in list shows its whole universe; the others narrow.
	require.Len(t, resp.ClientBalances, 2)
	require.Len(t, resp.AccountDetails, 2) // A1, A2 belong to C1
	for _, a := range resp.AccountDetails {
		require.Equal(t, "C1", a.ClientID)
	}
	// KPIs follow the filter, not the suppressed list.
	require.Equal(t, 1, resp.KPIMetrics.ActiveClients)
	require.True(t, resp.KPIMetrics.TotalAUM.Equal(decimal.NewFromInt(330)))
}

func TestCrossDimensionFilterNarrowsClients(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{
		Criteria: models.FilterCriteria{
			FundNames:       []string{"Bond Income Fund"},
			SelectionSource: models.DimensionFund,
		},
	})
	require.NoError(t, err)

	// Only C1 holds the bond fund; the fund list stays complete.
	require.Len(t, resp.ClientBalances, 1)
	require.Equal(t, "C1", resp.ClientBalances[0].ClientID)
	require.Len(t, resp.FundBalances, 2)
	require.Len(t, resp.AccountDetails, 1)
	require.Equal(t, "A2", resp.AccountDetails[0].AccountID)
}

func TestGetDashboardPagination(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{PageSize: 1})
	require.NoError(t, err)
	require.NotNil(t, resp.Pagination)
	require.Len(t, resp.ClientBalances, 1)
	require.Equal(t, "C1", resp.ClientBalances[0].ClientID)
	require.True(t, resp.Pagination.Clients.HasMore)

	next, err := svc.GetDashboard(context.Background(), DashboardRequest{
		PageSize:     1,
		ClientCursor: resp.Pagination.Clients.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, next.ClientBalances, 1)
	require.Equal(t, "C2", next.ClientBalances[0].ClientID)
	require.False(t, next.Pagination.Clients.HasMore)
}

func TestGetDashboardNegativePageSize(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetDashboard(context.Background(), DashboardRequest{PageSize: -1})
	var invalid *InvalidParameterError
	require.ErrorAs(t, err, &invalid)
}

func TestFiltersAppliedEcho(t *testing.T) {
	svc, _ := newTestService(t)
	criteria := models.FilterCriteria{ClientIDs: []string{"C1"}, SelectionSource: models.DimensionClient}

	resp, err := svc.GetDashboard(context.Background(), DashboardRequest{Criteria: criteria})
	require.NoError(t, err)
	require.Equal(t, criteria, resp.Metadata.FiltersApplied)
}

func TestDownloadRowCount(t *testing.T) {
	svc, _ := newTestService(t)

	count, err := svc.DownloadRowCount(context.Background(), models.FilterCriteria{ClientIDs: []string{"C1"}}, "")
	require.NoError(t, err)
	require.Equal(t, 2, count) // A1/GEF and A2/BIF at 2024-04-15
}

func TestDownloadRequiresFilter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DownloadRowCount(context.Background(), models.FilterCriteria{}, "")
	require.ErrorIs(t, err, ErrNoFilter)

	err = svc.StreamDownload(context.Background(), models.FilterCriteria{}, "", func(models.DownloadRow) error {
		t.Fatal("no rows expected")
		return nil
	})
	require.ErrorIs(t, err, ErrNoFilter)
}

func TestDownloadCeiling(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, 1, common.NewSilentLogger())

	err := svc.StreamDownload(context.Background(), models.FilterCriteria{ClientIDs: []string{"C1"}}, "", func(models.DownloadRow) error {
		t.Fatal("no rows expected once the ceiling rejects")
		return nil
	})
	var tooLarge *DownloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.Equal(t, 2, tooLarge.Count)
	require.Equal(t, 1, tooLarge.Ceiling)
}

func TestStreamDownloadRows(t *testing.T) {
	svc, _ := newTestService(t)

	var rows []models.DownloadRow
	err := svc.StreamDownload(context.Background(), models.FilterCriteria{ClientIDs: []string{"C1"}}, "", func(r models.DownloadRow) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by (account_id, fund_name).
	require.Equal(t, "A1", rows[0].AccountID)
	require.Equal(t, "Global Equity Fund", rows[0].FundName)
	require.Equal(t, "GEF", rows[0].FundTicker)
	require.Equal(t, "Alpha Corp", rows[0].ClientName)
	require.True(t, rows[0].Balance.Equal(decimal.NewFromInt(120)))
	require.NotNil(t, rows[0].QTDDelta)
	require.True(t, rows[0].QTDDelta.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, rows[0].YTDDelta)
	require.True(t, rows[0].YTDDelta.Equal(decimal.NewFromInt(20)))
	require.NotNil(t, rows[0].YTDChange)
	require.InDelta(t, 20.0, *rows[0].YTDChange, 1e-9)

	require.Equal(t, "A2", rows[1].AccountID)
	require.Equal(t, "Bond Income Fund", rows[1].FundName)
}
