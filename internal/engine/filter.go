package engine

import (
	"strings"
	"unicode"

	"github.com/duggasco/CET/internal/models"
)

const maxIdentifierLen = 64

// Compose builds the effective predicate for one dimension's query. An
// inclusion set is suppressed from the target dimension's own query when
// that dimension is the selection source, so the list the user clicked in
// keeps showing its unfiltered universe. Pattern filters and the other
// dimensions' inclusion sets always apply.
func Compose(c models.FilterCriteria, target models.Dimension) models.Predicate {
	p := models.Predicate{}.
		WithClientNamePattern(c.ClientNamePattern).
		WithFundTextPattern(c.FundTextPattern).
		WithAccountIDPattern(c.AccountIDPattern)

	if !(target == models.DimensionClient && c.SelectionSource == models.DimensionClient) {
		p = p.WithClientIDs(c.ClientIDs)
	}
	if !(target == models.DimensionFund && c.SelectionSource == models.DimensionFund) {
		p = p.WithFundNames(c.FundNames)
	}
	if !(target == models.DimensionAccount && c.SelectionSource == models.DimensionAccount) {
		p = p.WithAccountIDs(c.AccountIDs)
	}
	return p
}

// ComposeFull builds the fully filtered predicate with no suppression.
// KPIs, chart history, and exports always use this form.
func ComposeFull(c models.FilterCriteria) models.Predicate {
	return Compose(c, models.DimensionNone)
}

// ValidateCriteria rejects malformed filter values before any store access.
// Identifiers must be non-empty printable ASCII without quoting or control
// characters, and no longer than 64 bytes. Patterns share the length bound.
func ValidateCriteria(c models.FilterCriteria) error {
	for _, id := range c.ClientIDs {
		if err := validateIdentifier("client_ids", id); err != nil {
			return err
		}
	}
	for _, name := range c.FundNames {
		if err := validateIdentifier("fund_names", name); err != nil {
			return err
		}
	}
	for _, id := range c.AccountIDs {
		if err := validateIdentifier("account_ids", id); err != nil {
			return err
		}
	}
	if err := validatePattern("client_name", c.ClientNamePattern); err != nil {
		return err
	}
	if err := validatePattern("fund_ticker", c.FundTextPattern); err != nil {
		return err
	}
	if err := validatePattern("account_number", c.AccountIDPattern); err != nil {
		return err
	}
	return nil
}

func validateIdentifier(field, value string) error {
	if value == "" {
		return &InvalidParameterError{Field: field, Value: value, Reason: "identifier must not be empty"}
	}
	if len(value) > maxIdentifierLen {
		return &InvalidParameterError{Field: field, Value: value, Reason: "identifier exceeds 64 bytes"}
	}
	for _, r := range value {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return &InvalidParameterError{Field: field, Value: value, Reason: "identifier contains non-printable or non-ASCII characters"}
		}
		if strings.ContainsRune(`"'`+"`"+`\;`, r) {
			return &InvalidParameterError{Field: field, Value: value, Reason: "identifier contains disallowed punctuation"}
		}
	}
	return nil
}

func validatePattern(field, value string) error {
	if value == "" {
		return nil
	}
	if len(value) > maxIdentifierLen {
		return &InvalidParameterError{Field: field, Value: value, Reason: "pattern exceeds 64 bytes"}
	}
	for _, r := range value {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return &InvalidParameterError{Field: field, Value: value, Reason: "pattern contains non-printable or non-ASCII characters"}
		}
	}
	return nil
}
