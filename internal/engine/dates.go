package engine

import (
	"context"
	"time"

	"github.com/duggasco/CET/internal/interfaces"
	"github.com/duggasco/CET/internal/models"
)

// ParseDate parses a calendar date in the canonical YYYY-MM-DD form.
// Anything else, including valid-looking strings such as "2024-1-5" or
// "2024-02-30", is rejected.
func ParseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(models.DateFormat, value)
	if err != nil {
		return time.Time{}, &InvalidParameterError{Field: field, Value: value, Reason: "expected a calendar date in YYYY-MM-DD form"}
	}
	return models.Day(t), nil
}

// QuarterStart returns the first day of the calendar quarter containing d.
func QuarterStart(d time.Time) time.Time {
	q := (int(d.Month()) - 1) / 3
	return time.Date(d.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// YearStart returns January 1 of d's year.
func YearStart(d time.Time) time.Time {
	return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// refDates carries the requested reference date alongside the resolved
// snapshot dates the balance queries run against. A false ok flag means no
// fact date exists on or before the boundary, which renders the
// corresponding figures null rather than zero.
type refDates struct {
	ref time.Time

	current   time.Time
	currentOK bool

	qtd   time.Time
	qtdOK bool

	ytd   time.Time
	ytdOK bool
}

// resolveRefDates resolves the reference date and its quarter-to-date and
// year-to-date boundaries against the fact calendar. Boundaries are derived
// from the requested date, not from whatever snapshot it resolved to.
func resolveRefDates(ctx context.Context, facts interfaces.FactStore, ref time.Time) (refDates, error) {
	rd := refDates{ref: ref}
	var err error

	rd.current, rd.currentOK, err = facts.ResolveDate(ctx, ref)
	if err != nil {
		return rd, err
	}
	rd.qtd, rd.qtdOK, err = facts.ResolveDate(ctx, QuarterStart(ref))
	if err != nil {
		return rd, err
	}
	rd.ytd, rd.ytdOK, err = facts.ResolveDate(ctx, YearStart(ref))
	if err != nil {
		return rd, err
	}
	return rd, nil
}
