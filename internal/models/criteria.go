package models

// Dimension identifies one of the three entity tables the dashboard renders.
type Dimension string

const (
	DimensionNone    Dimension = ""
	DimensionClient  Dimension = "client"
	DimensionFund    Dimension = "fund"
	DimensionAccount Dimension = "account"
)

// ParseDimension maps a request string onto a Dimension. Unknown values are
// reported so the boundary can reject them before any store access.
func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case DimensionNone, DimensionClient, DimensionFund, DimensionAccount:
		return Dimension(s), true
	}
	return DimensionNone, false
}

// FilterCriteria is the typed filter value object built fresh per request.
// Inclusion sets narrow to listed entities; text patterns are substring
// matches that apply to every dimension; SelectionSource marks the dimension
// whose own inclusion set is suppressed from its own rendered list so that
// multi-selection stays possible (cross-filter semantics).
type FilterCriteria struct {
	ClientIDs  []string `json:"client_ids,omitempty"`
	FundNames  []string `json:"fund_names,omitempty"`
	AccountIDs []string `json:"account_ids,omitempty"`

	ClientNamePattern string `json:"client_name,omitempty"`
	FundTextPattern   string `json:"fund_ticker,omitempty"`
	AccountIDPattern  string `json:"account_number,omitempty"`

	SelectionSource Dimension `json:"selection_source,omitempty"`
}

// IsEmpty reports whether no inclusion set and no text pattern is present.
// Empty criteria are eligible for the materialized cache.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.ClientIDs) == 0 &&
		len(c.FundNames) == 0 &&
		len(c.AccountIDs) == 0 &&
		c.ClientNamePattern == "" &&
		c.FundTextPattern == "" &&
		c.AccountIDPattern == ""
}
