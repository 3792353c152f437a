package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientBalance is one row of the client table: aggregate balance across the
// client's accounts with quarter- and year-to-date percentage changes.
// A nil change means the baseline snapshot could not be resolved; a zero
// baseline is reported as a 0 change by convention.
type ClientBalance struct {
	ClientID     string          `json:"client_id"`
	ClientName   string          `json:"client_name"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	QTDChange    *float64        `json:"qtd_change"`
	YTDChange    *float64        `json:"ytd_change"`
}

// FundBalance is one row of the fund table.
type FundBalance struct {
	FundName     string          `json:"fund_name"`
	FundTicker   string          `json:"fund_ticker"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	AccountCount int             `json:"account_count"`
	QTDChange    *float64        `json:"qtd_change"`
	YTDChange    *float64        `json:"ytd_change"`
}

// AccountDetail is one row of the account table. Accounts whose current
// total is exactly zero are not held as of the reference date and are
// excluded from this table.
type AccountDetail struct {
	AccountID  string          `json:"account_id"`
	ClientID   string          `json:"client_id"`
	ClientName string          `json:"client_name"`
	Balance    decimal.Decimal `json:"balance"`
	QTDChange  *float64        `json:"qtd_change"`
	YTDChange  *float64        `json:"ytd_change"`
}

// HistoryPoint is one point of a balance history series. Dates with no
// matching facts are omitted from series, not zero-filled.
type HistoryPoint struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// KPIMetrics are the system-wide headline numbers. They always use the full
// intersection predicate: selection-source suppression never applies here.
type KPIMetrics struct {
	ActiveClients  int             `json:"active_clients"`
	ActiveFunds    int             `json:"active_funds"`
	ActiveAccounts int             `json:"active_accounts"`
	TotalAUM       decimal.Decimal `json:"total_aum"`
	Balance30dAgo  decimal.Decimal `json:"balance_30d_ago"`
	Change30d      *float64        `json:"change_30d"`
	AvgYTDGrowth   float64         `json:"avg_ytd_growth"`
}

// Charts bundles the two history series the dashboard plots.
type Charts struct {
	RecentHistory   []HistoryPoint `json:"recent_history"`
	LongTermHistory []HistoryPoint `json:"long_term_history"`
}

// PageInfo is the pagination state for one entity table.
type PageInfo struct {
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Pagination is present in a response only when a page size was requested.
type Pagination struct {
	PageSize int      `json:"page_size"`
	Clients  PageInfo `json:"clients"`
	Funds    PageInfo `json:"funds"`
	Accounts PageInfo `json:"accounts"`
}

// Response provenance values for Metadata.Source.
const (
	ResponseSourceLive  = "live"
	ResponseSourceCache = "cache"
)

// Metadata describes how a dashboard response was produced.
type Metadata struct {
	AsOfDate       string         `json:"as_of_date"`
	Source         string         `json:"source"`
	MaterializedAt *time.Time     `json:"materialized_at,omitempty"`
	FiltersApplied FilterCriteria `json:"filters_applied"`
}

// DashboardResponse is the assembled dashboard payload.
type DashboardResponse struct {
	Metadata       Metadata        `json:"metadata"`
	KPIMetrics     KPIMetrics      `json:"kpi_metrics"`
	ClientBalances []ClientBalance `json:"client_balances"`
	FundBalances   []FundBalance   `json:"fund_balances"`
	AccountDetails []AccountDetail `json:"account_details"`
	Charts         *Charts         `json:"charts,omitempty"`
	Pagination     *Pagination     `json:"pagination,omitempty"`
}

// CacheSnapshot is a complete materialized dashboard for one calendar date,
// written wholesale by the offline warming job and read-only to the request
// path. A date's snapshot is replaced atomically; partial snapshots are
// never observable.
type CacheSnapshot struct {
	AsOfDate        time.Time       `json:"as_of_date"`
	MaterializedAt  time.Time       `json:"materialized_at"`
	KPIMetrics      KPIMetrics      `json:"kpi_metrics"`
	ClientBalances  []ClientBalance `json:"client_balances"`
	FundBalances    []FundBalance   `json:"fund_balances"`
	AccountDetails  []AccountDetail `json:"account_details"`
	RecentHistory   []HistoryPoint  `json:"recent_history"`
	LongTermHistory []HistoryPoint  `json:"long_term_history"`
}

// DownloadRow is one export row: a single account/fund/date fact with its
// derived dollar and percentage changes against the resolved quarter and
// year baselines.
type DownloadRow struct {
	AccountID   string           `json:"account_id"`
	ClientID    string           `json:"client_id"`
	ClientName  string           `json:"client_name"`
	FundName    string           `json:"fund_name"`
	FundTicker  string           `json:"fund_ticker"`
	BalanceDate time.Time        `json:"balance_date"`
	Balance     decimal.Decimal  `json:"balance"`
	QTDDelta    *decimal.Decimal `json:"qtd_delta"`
	QTDChange   *float64         `json:"qtd_change"`
	YTDDelta    *decimal.Decimal `json:"ytd_delta"`
	YTDChange   *float64         `json:"ytd_change"`
}
