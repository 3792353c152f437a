package models

import "strings"

// Predicate is the effective inclusion predicate over balance facts for one
// rendered dimension, together with the joins it requires. It is composed by
// the filter composer and evaluated by fact store implementations; clauses
// and join requirements travel as a single object so stores never build
// ad-hoc query fragments.
type Predicate struct {
	clientIDs  map[string]struct{}
	fundNames  map[string]struct{}
	accountIDs map[string]struct{}

	clientNamePattern string // lowercased substring of client name
	fundTextPattern   string // lowercased substring of fund name or ticker
	accountIDPattern  string // lowercased substring of account id

	needClientLink bool
	needFundInfo   bool
}

// WithClientIDs adds a client inclusion clause. Implies the client join.
func (p Predicate) WithClientIDs(ids []string) Predicate {
	if len(ids) == 0 {
		return p
	}
	p.clientIDs = toSet(ids)
	p.needClientLink = true
	return p
}

// WithFundNames adds a fund inclusion clause.
func (p Predicate) WithFundNames(names []string) Predicate {
	if len(names) == 0 {
		return p
	}
	p.fundNames = toSet(names)
	return p
}

// WithAccountIDs adds an account inclusion clause.
func (p Predicate) WithAccountIDs(ids []string) Predicate {
	if len(ids) == 0 {
		return p
	}
	p.accountIDs = toSet(ids)
	return p
}

// WithClientNamePattern adds a case-insensitive client name substring clause.
// Implies the client join.
func (p Predicate) WithClientNamePattern(pattern string) Predicate {
	if pattern == "" {
		return p
	}
	p.clientNamePattern = strings.ToLower(pattern)
	p.needClientLink = true
	return p
}

// WithFundTextPattern adds a case-insensitive clause matching either the
// fund name or its ticker. Implies the fund directory join.
func (p Predicate) WithFundTextPattern(pattern string) Predicate {
	if pattern == "" {
		return p
	}
	p.fundTextPattern = strings.ToLower(pattern)
	p.needFundInfo = true
	return p
}

// WithAccountIDPattern adds a case-insensitive account id substring clause.
func (p Predicate) WithAccountIDPattern(pattern string) Predicate {
	if pattern == "" {
		return p
	}
	p.accountIDPattern = strings.ToLower(pattern)
	return p
}

// RequireClientLink forces the client join even without a client clause,
// e.g. when the caller groups by client or renders client labels.
func (p Predicate) RequireClientLink() Predicate {
	p.needClientLink = true
	return p
}

// RequireFundInfo forces the fund directory join, e.g. when the caller
// renders fund tickers.
func (p Predicate) RequireFundInfo() Predicate {
	p.needFundInfo = true
	return p
}

// NeedsClientLink reports whether evaluating (or rendering) this predicate
// requires the account-to-client mapping.
func (p Predicate) NeedsClientLink() bool { return p.needClientLink }

// NeedsFundInfo reports whether the fund directory is required.
func (p Predicate) NeedsFundInfo() bool { return p.needFundInfo }

// Matches evaluates the predicate against a joined row.
func (p Predicate) Matches(row FactRow) bool {
	if p.clientIDs != nil {
		if _, ok := p.clientIDs[row.ClientID]; !ok {
			return false
		}
	}
	if p.fundNames != nil {
		if _, ok := p.fundNames[row.FundName]; !ok {
			return false
		}
	}
	if p.accountIDs != nil {
		if _, ok := p.accountIDs[row.AccountID]; !ok {
			return false
		}
	}
	if p.clientNamePattern != "" &&
		!strings.Contains(strings.ToLower(row.ClientName), p.clientNamePattern) {
		return false
	}
	if p.fundTextPattern != "" &&
		!strings.Contains(strings.ToLower(row.FundName), p.fundTextPattern) &&
		!strings.Contains(strings.ToLower(row.FundTicker), p.fundTextPattern) {
		return false
	}
	if p.accountIDPattern != "" &&
		!strings.Contains(strings.ToLower(row.AccountID), p.accountIDPattern) {
		return false
	}
	return true
}

// BuildRows joins raw facts against the client mapping and fund directory
// and keeps the rows matching the predicate. Pass links only when the
// predicate needs the client join: rows without a link are then dropped
// (inner-join semantics, matching how client and account views behave).
// The fund join is always a left join; missing directory entries get a
// derived ticker so fund rendering and filtering stay total.
func BuildRows(facts []BalanceFact, links map[string]ClientLink, funds map[string]FundInfo, pred Predicate) []FactRow {
	rows := make([]FactRow, 0, len(facts))
	for _, f := range facts {
		row := FactRow{
			AccountID:   f.AccountID,
			FundName:    f.FundName,
			BalanceDate: f.BalanceDate,
			Balance:     f.Balance,
		}
		if links != nil {
			link, ok := links[f.AccountID]
			if !ok {
				continue
			}
			row.ClientID = link.ClientID
			row.ClientName = link.ClientName
		}
		if funds != nil {
			if info, ok := funds[f.FundName]; ok && info.Ticker != "" {
				row.FundTicker = info.Ticker
			} else {
				row.FundTicker = DerivedTicker(f.FundName)
			}
		}
		if pred.Matches(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
