package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duggasco/CET/internal/cache"
	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/models"
)

const (
	recentHistoryDays   = 90
	longTermHistoryDays = 1095
)

// Service assembles dashboard responses and export streams. It owns the
// cache-versus-live routing decision; everything below it is unaware the
// cache exists.
type Service struct {
	facts   interfaces.FactStore
	agg     *Aggregator
	gateway *cache.Gateway
	maxRows int
	logger  *common.Logger
}

// NewService wires a Service. A nil gateway disables the cache path
// entirely; maxRows caps export size.
func NewService(facts interfaces.FactStore, gateway *cache.Gateway, maxRows int, logger *common.Logger) *Service {
	return &Service{
		facts:   facts,
		agg:     NewAggregator(facts),
		gateway: gateway,
		maxRows: maxRows,
		logger:  logger,
	}
}

// DashboardRequest is a parsed dashboard query.
type DashboardRequest struct {
	Criteria      models.FilterCriteria
	Date          string
	IncludeCharts bool
	PageSize      int
	ClientCursor  string
	FundCursor    string
	AccountCursor string
}

func (r DashboardRequest) hasCursor() bool {
	return r.ClientCursor != "" || r.FundCursor != "" || r.AccountCursor != ""
}

// GetDashboard validates the request, routes it to the cache or the live
// compute path, and paginates the result.
func (s *Service) GetDashboard(ctx context.Context, req DashboardRequest) (*models.DashboardResponse, error) {
	if err := ValidateCriteria(req.Criteria); err != nil {
		return nil, err
	}
	if req.PageSize < 0 {
		return nil, &InvalidParameterError{Field: "page_size", Value: "", Reason: "page size must not be negative"}
	}

	ref, ok, err := s.referenceDate(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.emptyResponse(req), nil
	}

	rd, err := resolveRefDates(ctx, s.facts, ref)
	if err != nil {
		return nil, err
	}
	if !rd.currentOK {
		return s.emptyResponse(req), nil
	}

	if s.gateway != nil && cache.ShouldUse(req.Criteria, req.hasCursor()) {
		if snap, hit := s.gateway.Lookup(ctx, rd.current); hit {
			resp := s.responseFromSnapshot(snap, req)
			s.applyPagination(resp, req)
			return resp, nil
		}
	}

	core, err := s.computeCore(ctx, req.Criteria, rd, req.IncludeCharts)
	if err != nil {
		return nil, err
	}
	resp := &models.DashboardResponse{
		Metadata: models.Metadata{
			AsOfDate:       rd.current.Format(models.DateFormat),
			Source:         models.ResponseSourceLive,
			FiltersApplied: req.Criteria,
		},
		KPIMetrics:     core.kpi,
		ClientBalances: core.clients,
		FundBalances:   core.funds,
		AccountDetails: core.accounts,
	}
	if req.IncludeCharts {
		resp.Charts = &models.Charts{
			RecentHistory:   core.recent,
			LongTermHistory: core.longTerm,
		}
	}
	s.applyPagination(resp, req)
	return resp, nil
}

// ComputeSnapshot builds the complete empty-criteria dashboard for asOf,
// bypassing the cache. The warming job persists the result.
func (s *Service) ComputeSnapshot(ctx context.Context, asOf time.Time) (*models.CacheSnapshot, error) {
	rd, err := resolveRefDates(ctx, s.facts, asOf)
	if err != nil {
		return nil, err
	}
	if !rd.currentOK {
		return nil, &InvalidParameterError{Field: "date", Value: asOf.Format(models.DateFormat), Reason: "no facts exist on or before this date"}
	}
	core, err := s.computeCore(ctx, models.FilterCriteria{}, rd, true)
	if err != nil {
		return nil, err
	}
	return &models.CacheSnapshot{
		AsOfDate:        rd.current,
		MaterializedAt:  time.Now().UTC(),
		KPIMetrics:      core.kpi,
		ClientBalances:  core.clients,
		FundBalances:    core.funds,
		AccountDetails:  core.accounts,
		RecentHistory:   core.recent,
		LongTermHistory: core.longTerm,
	}, nil
}

type coreResult struct {
	clients  []models.ClientBalance
	funds    []models.FundBalance
	accounts []models.AccountDetail
	kpi      models.KPIMetrics
	recent   []models.HistoryPoint
	longTerm []models.HistoryPoint
}

// computeCore runs the live aggregation pipeline. Each dimension gets its
// own composed predicate; KPIs and history always use the full one.
func (s *Service) computeCore(ctx context.Context, c models.FilterCriteria, rd refDates, charts bool) (*coreResult, error) {
	var core coreResult
	var err error

	core.clients, err = s.agg.ClientBalances(ctx, Compose(c, models.DimensionClient), rd)
	if err != nil {
		return nil, err
	}
	core.funds, err = s.agg.FundBalances(ctx, Compose(c, models.DimensionFund), rd)
	if err != nil {
		return nil, err
	}
	core.accounts, err = s.agg.AccountDetails(ctx, Compose(c, models.DimensionAccount), rd)
	if err != nil {
		return nil, err
	}

	full := ComposeFull(c)
	core.kpi, err = s.agg.KPIs(ctx, full, rd)
	if err != nil {
		return nil, err
	}

	// The average YTD growth follows the filtered book. When suppression
	// widened the client list, recompute it over the full predicate.
	avgSource := core.clients
	if c.SelectionSource == models.DimensionClient && len(c.ClientIDs) > 0 {
		avgSource, err = s.agg.ClientBalances(ctx, full, rd)
		if err != nil {
			return nil, err
		}
	}
	core.kpi.AvgYTDGrowth = AvgYTDGrowth(avgSource)

	if charts {
		core.recent, err = s.agg.History(ctx, full, rd.ref, recentHistoryDays)
		if err != nil {
			return nil, err
		}
		core.longTerm, err = s.agg.History(ctx, full, rd.ref, longTermHistoryDays)
		if err != nil {
			return nil, err
		}
	}
	return &core, nil
}

func (s *Service) responseFromSnapshot(snap *models.CacheSnapshot, req DashboardRequest) *models.DashboardResponse {
	materialized := snap.MaterializedAt
	resp := &models.DashboardResponse{
		Metadata: models.Metadata{
			AsOfDate:       snap.AsOfDate.Format(models.DateFormat),
			Source:         models.ResponseSourceCache,
			MaterializedAt: &materialized,
			FiltersApplied: req.Criteria,
		},
		KPIMetrics:     snap.KPIMetrics,
		ClientBalances: snap.ClientBalances,
		FundBalances:   snap.FundBalances,
		AccountDetails: snap.AccountDetails,
	}
	if req.IncludeCharts {
		resp.Charts = &models.Charts{
			RecentHistory:   snap.RecentHistory,
			LongTermHistory: snap.LongTermHistory,
		}
	}
	return resp
}

// applyPagination slices the three entity lists in place. The pagination
// block appears only when a page size was requested.
func (s *Service) applyPagination(resp *models.DashboardResponse, req DashboardRequest) {
	if req.PageSize <= 0 && !req.hasCursor() {
		return
	}
	pg := &models.Pagination{PageSize: req.PageSize}
	resp.ClientBalances, pg.Clients = paginate(resp.ClientBalances, clientSortKey, models.DimensionClient, req.PageSize, req.ClientCursor)
	resp.FundBalances, pg.Funds = paginate(resp.FundBalances, fundSortKey, models.DimensionFund, req.PageSize, req.FundCursor)
	resp.AccountDetails, pg.Accounts = paginate(resp.AccountDetails, accountSortKey, models.DimensionAccount, req.PageSize, req.AccountCursor)
	resp.Pagination = pg
}

// referenceDate picks the requested date, or the latest fact date when none
// was given. ok=false means the store is empty.
func (s *Service) referenceDate(ctx context.Context, date string) (time.Time, bool, error) {
	if date != "" {
		d, err := ParseDate("date", date)
		if err != nil {
			return time.Time{}, false, err
		}
		return d, true, nil
	}
	latest, ok, err := s.facts.LatestFactDate(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return latest, ok, nil
}

func (s *Service) emptyResponse(req DashboardRequest) *models.DashboardResponse {
	resp := &models.DashboardResponse{
		Metadata: models.Metadata{
			Source:         models.ResponseSourceLive,
			FiltersApplied: req.Criteria,
		},
		ClientBalances: []models.ClientBalance{},
		FundBalances:   []models.FundBalance{},
		AccountDetails: []models.AccountDetail{},
	}
	if req.IncludeCharts {
		resp.Charts = &models.Charts{
			RecentHistory:   []models.HistoryPoint{},
			LongTermHistory: []models.HistoryPoint{},
		}
	}
	return resp
}

// DownloadRowCount returns the number of rows an export with these criteria
// would produce. A completely empty filter is rejected.
func (s *Service) DownloadRowCount(ctx context.Context, c models.FilterCriteria, date string) (int, error) {
	rows, _, err := s.downloadFacts(ctx, c, date)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// StreamDownload yields one export row per account/fund fact at the resolved
// reference date, ordered by account id then fund name. The row ceiling is
// enforced before the first row is yielded, so a rejected export emits
// nothing.
func (s *Service) StreamDownload(ctx context.Context, c models.FilterCriteria, date string, yield func(models.DownloadRow) error) error {
	rows, rd, err := s.downloadFacts(ctx, c, date)
	if err != nil {
		return err
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return &DownloadTooLargeError{Count: len(rows), Ceiling: s.maxRows}
	}

	key := func(accountID, fundName string) string { return accountID + "\x00" + fundName }
	pred := ComposeFull(c).RequireClientLink().RequireFundInfo()
	qtd, err := s.factTotals(ctx, pred, rd.qtd, rd.qtdOK, key)
	if err != nil {
		return err
	}
	ytd, err := s.factTotals(ctx, pred, rd.ytd, rd.ytdOK, key)
	if err != nil {
		return err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AccountID != rows[j].AccountID {
			return rows[i].AccountID < rows[j].AccountID
		}
		return rows[i].FundName < rows[j].FundName
	})
	for _, r := range rows {
		row := models.DownloadRow{
			AccountID:   r.AccountID,
			ClientID:    r.ClientID,
			ClientName:  r.ClientName,
			FundName:    r.FundName,
			FundTicker:  r.FundTicker,
			BalanceDate: r.BalanceDate,
			Balance:     r.Balance,
		}
		k := key(r.AccountID, r.FundName)
		row.QTDDelta, row.QTDChange = deltaAgainst(qtd, k, r.Balance)
		row.YTDDelta, row.YTDChange = deltaAgainst(ytd, k, r.Balance)
		if err := yield(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) downloadFacts(ctx context.Context, c models.FilterCriteria, date string) ([]models.FactRow, refDates, error) {
	if err := ValidateCriteria(c); err != nil {
		return nil, refDates{}, err
	}
	if c.IsEmpty() {
		return nil, refDates{}, ErrNoFilter
	}
	ref, ok, err := s.referenceDate(ctx, date)
	if err != nil {
		return nil, refDates{}, err
	}
	if !ok {
		return []models.FactRow{}, refDates{}, nil
	}
	rd, err := resolveRefDates(ctx, s.facts, ref)
	if err != nil {
		return nil, refDates{}, err
	}
	if !rd.currentOK {
		return []models.FactRow{}, rd, nil
	}
	pred := ComposeFull(c).RequireClientLink().RequireFundInfo()
	rows, err := s.facts.FactsAt(ctx, pred, rd.current)
	if err != nil {
		return nil, rd, err
	}
	return rows, rd, nil
}

func (s *Service) factTotals(ctx context.Context, pred models.Predicate, date time.Time, ok bool, key func(string, string) string) (map[string]decimal.Decimal, error) {
	if !ok {
		return nil, nil
	}
	rows, err := s.facts.FactsAt(ctx, pred, date)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		k := key(r.AccountID, r.FundName)
		totals[k] = totals[k].Add(r.Balance)
	}
	return totals, nil
}

// deltaAgainst derives the dollar and percentage change for one export row.
// Conventions match the dashboard: nil for an unresolvable baseline, 0
// percent for a zero baseline.
func deltaAgainst(totals map[string]decimal.Decimal, key string, cur decimal.Decimal) (*decimal.Decimal, *float64) {
	if totals == nil {
		return nil, nil
	}
	base, ok := totals[key]
	if !ok {
		return nil, nil
	}
	delta := cur.Sub(base)
	return &delta, pctChange(cur, base, true)
}
