package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/models"
)

// Aggregator computes the dashboard aggregates for one resolved set of
// reference dates. It holds no state beyond the fact store; every method is
// a pure function of the store contents.
type Aggregator struct {
	facts interfaces.FactStore
}

// NewAggregator returns an Aggregator over the given fact store.
func NewAggregator(facts interfaces.FactStore) *Aggregator {
	return &Aggregator{facts: facts}
}

// pctChange computes the percentage change from base to cur. The baseline
// conventions: an unresolvable baseline yields nil (rendered as null), an
// exactly-zero baseline yields a concrete 0.
func pctChange(cur, base decimal.Decimal, baseOK bool) *float64 {
	if !baseOK {
		return nil
	}
	v := 0.0
	if !base.IsZero() {
		v, _ = cur.Sub(base).Div(base).Mul(decimal.NewFromInt(100)).Float64()
	}
	return &v
}

// totalsByKey sums balances per grouping key.
func totalsByKey(rows []models.FactRow, key func(models.FactRow) string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		totals[key(r)] = totals[key(r)].Add(r.Balance)
	}
	return totals
}

// boundaryTotals loads and groups baseline balances, or returns a nil map
// when the boundary date did not resolve. A nil map means every entity's
// change is null; an entity merely absent from a non-nil map also gets null.
func (a *Aggregator) boundaryTotals(ctx context.Context, pred models.Predicate, date time.Time, ok bool, key func(models.FactRow) string) (map[string]decimal.Decimal, error) {
	if !ok {
		return nil, nil
	}
	rows, err := a.facts.FactsAt(ctx, pred, date)
	if err != nil {
		return nil, err
	}
	return totalsByKey(rows, key), nil
}

func changeFor(totals map[string]decimal.Decimal, key string, cur decimal.Decimal) *float64 {
	if totals == nil {
		return nil
	}
	base, ok := totals[key]
	return pctChange(cur, base, ok)
}

// ClientBalances aggregates per-client totals with QTD and YTD changes,
// sorted by client name then client id. Facts without a client mapping are
// dropped.
func (a *Aggregator) ClientBalances(ctx context.Context, pred models.Predicate, rd refDates) ([]models.ClientBalance, error) {
	if !rd.currentOK {
		return []models.ClientBalance{}, nil
	}
	pred = pred.RequireClientLink()
	key := func(r models.FactRow) string { return r.ClientID }

	cur, err := a.facts.FactsAt(ctx, pred, rd.current)
	if err != nil {
		return nil, err
	}
	qtd, err := a.boundaryTotals(ctx, pred, rd.qtd, rd.qtdOK, key)
	if err != nil {
		return nil, err
	}
	ytd, err := a.boundaryTotals(ctx, pred, rd.ytd, rd.ytdOK, key)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, r := range cur {
		names[r.ClientID] = r.ClientName
	}
	totals := totalsByKey(cur, key)

	out := make([]models.ClientBalance, 0, len(totals))
	for id, total := range totals {
		out = append(out, models.ClientBalance{
			ClientID:     id,
			ClientName:   names[id],
			TotalBalance: total,
			QTDChange:    changeFor(qtd, id, total),
			YTDChange:    changeFor(ytd, id, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientName != out[j].ClientName {
			return out[i].ClientName < out[j].ClientName
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}

// FundBalances aggregates per-fund totals with changes and the count of
// distinct accounts holding each fund, sorted by fund name.
func (a *Aggregator) FundBalances(ctx context.Context, pred models.Predicate, rd refDates) ([]models.FundBalance, error) {
	if !rd.currentOK {
		return []models.FundBalance{}, nil
	}
	pred = pred.RequireFundInfo()
	key := func(r models.FactRow) string { return r.FundName }

	cur, err := a.facts.FactsAt(ctx, pred, rd.current)
	if err != nil {
		return nil, err
	}
	qtd, err := a.boundaryTotals(ctx, pred, rd.qtd, rd.qtdOK, key)
	if err != nil {
		return nil, err
	}
	ytd, err := a.boundaryTotals(ctx, pred, rd.ytd, rd.ytdOK, key)
	if err != nil {
		return nil, err
	}

	tickers := make(map[string]string)
	accounts := make(map[string]map[string]struct{})
	for _, r := range cur {
		tickers[r.FundName] = r.FundTicker
		if accounts[r.FundName] == nil {
			accounts[r.FundName] = make(map[string]struct{})
		}
		accounts[r.FundName][r.AccountID] = struct{}{}
	}
	totals := totalsByKey(cur, key)

	out := make([]models.FundBalance, 0, len(totals))
	for name, total := range totals {
		out = append(out, models.FundBalance{
			FundName:     name,
			FundTicker:   tickers[name],
			TotalBalance: total,
			AccountCount: len(accounts[name]),
			QTDChange:    changeFor(qtd, name, total),
			YTDChange:    changeFor(ytd, name, total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FundName < out[j].FundName })
	return out, nil
}

// AccountDetails aggregates per-account totals, sorted by account id.
// Accounts whose current total is exactly zero are no longer held and are
// excluded entirely.
func (a *Aggregator) AccountDetails(ctx context.Context, pred models.Predicate, rd refDates) ([]models.AccountDetail, error) {
	if !rd.currentOK {
		return []models.AccountDetail{}, nil
	}
	pred = pred.RequireClientLink()
	key := func(r models.FactRow) string { return r.AccountID }

	cur, err := a.facts.FactsAt(ctx, pred, rd.current)
	if err != nil {
		return nil, err
	}
	qtd, err := a.boundaryTotals(ctx, pred, rd.qtd, rd.qtdOK, key)
	if err != nil {
		return nil, err
	}
	ytd, err := a.boundaryTotals(ctx, pred, rd.ytd, rd.ytdOK, key)
	if err != nil {
		return nil, err
	}

	type owner struct{ id, name string }
	owners := make(map[string]owner)
	for _, r := range cur {
		owners[r.AccountID] = owner{r.ClientID, r.ClientName}
	}
	totals := totalsByKey(cur, key)

	out := make([]models.AccountDetail, 0, len(totals))
	for id, total := range totals {
		if total.IsZero() {
			continue
		}
		out = append(out, models.AccountDetail{
			AccountID:  id,
			ClientID:   owners[id].id,
			ClientName: owners[id].name,
			Balance:    total,
			QTDChange:  changeFor(qtd, id, total),
			YTDChange:  changeFor(ytd, id, total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// KPIs computes the headline metrics over the full, unsuppressed predicate.
// The 30-day comparison resolves its own boundary; if it does not resolve,
// or no facts match at it, the change is null.
func (a *Aggregator) KPIs(ctx context.Context, pred models.Predicate, rd refDates) (models.KPIMetrics, error) {
	kpi := models.KPIMetrics{}
	if !rd.currentOK {
		return kpi, nil
	}
	pred = pred.RequireClientLink()

	cur, err := a.facts.FactsAt(ctx, pred, rd.current)
	if err != nil {
		return kpi, err
	}
	clients := make(map[string]struct{})
	funds := make(map[string]struct{})
	accounts := make(map[string]struct{})
	total := decimal.Zero
	for _, r := range cur {
		clients[r.ClientID] = struct{}{}
		funds[r.FundName] = struct{}{}
		accounts[r.AccountID] = struct{}{}
		total = total.Add(r.Balance)
	}
	kpi.ActiveClients = len(clients)
	kpi.ActiveFunds = len(funds)
	kpi.ActiveAccounts = len(accounts)
	kpi.TotalAUM = total

	prevDate, ok, err := a.facts.ResolveDate(ctx, rd.ref.AddDate(0, 0, -30))
	if err != nil {
		return kpi, err
	}
	if ok {
		prev, err := a.facts.FactsAt(ctx, pred, prevDate)
		if err != nil {
			return kpi, err
		}
		if len(prev) > 0 {
			base := decimal.Zero
			for _, r := range prev {
				base = base.Add(r.Balance)
			}
			kpi.Balance30dAgo = base
			kpi.Change30d = pctChange(total, base, true)
		}
	}
	return kpi, nil
}

// AvgYTDGrowth averages the non-null YTD changes across client rows.
// Clients with a null change are left out of both numerator and denominator.
func AvgYTDGrowth(clients []models.ClientBalance) float64 {
	sum, n := 0.0, 0
	for _, c := range clients {
		if c.YTDChange != nil {
			sum += *c.YTDChange
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// History returns the total-balance series over the days leading up to and
// including the reference date. Dates with no matching facts are omitted,
// not zero-filled.
func (a *Aggregator) History(ctx context.Context, pred models.Predicate, ref time.Time, days int) ([]models.HistoryPoint, error) {
	from := ref.AddDate(0, 0, -days)
	rows, err := a.facts.FactsRange(ctx, pred, from, ref)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		d := r.BalanceDate.Format(models.DateFormat)
		totals[d] = totals[d].Add(r.Balance)
	}
	out := make([]models.HistoryPoint, 0, len(totals))
	for d, total := range totals {
		out = append(out, models.HistoryPoint{Date: d, Balance: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
