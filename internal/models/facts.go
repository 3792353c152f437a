package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar date format used throughout the fact store.
const DateFormat = "2006-01-02"

// BalanceFact is one immutable balance observation. At most one fact exists
// per (account, fund, date); facts are appended by the external load process
// and never mutated by this service.
type BalanceFact struct {
	AccountID   string          `json:"account_id"`
	FundName    string          `json:"fund_name"`
	BalanceDate time.Time       `json:"balance_date"`
	Balance     decimal.Decimal `json:"balance"`
}

// ClientLink maps an account to its owning client. One client per account,
// fixed at account creation.
type ClientLink struct {
	AccountID  string `json:"account_id"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
}

// FundInfo is a fund directory entry. Funds with no directory entry still
// appear in results with a derived ticker.
type FundInfo struct {
	FundName string `json:"fund_name"`
	Ticker   string `json:"fund_ticker"`
}

// FactRow is a balance fact joined to its client link and fund directory
// entry. Client fields are empty when the predicate did not require the
// client mapping; FundTicker is empty when the fund directory was not needed.
type FactRow struct {
	AccountID   string
	FundName    string
	BalanceDate time.Time
	Balance     decimal.Decimal
	ClientID    string
	ClientName  string
	FundTicker  string
}

// DerivedTicker returns the fallback ticker for a fund missing from the
// directory: the uppercased first three characters of the fund name.
func DerivedTicker(fundName string) string {
	r := []rune(fundName)
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

// Day normalizes a time to midnight UTC, the canonical representation of a
// calendar date in the fact store.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
