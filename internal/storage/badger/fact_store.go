package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/duggasco/CET/internal/common"
	"github.com/duggasco/CET/internal/models"
)

// factRecord is one stored balance fact. Dates are stored as YYYY-MM-DD
// strings so index comparisons are plain byte order.
type factRecord struct {
	Key         string `badgerhold:"key"` // accountID|fundName|date
	AccountID   string
	FundName    string
	BalanceDate string `badgerholdIndex:"BalanceDate"`
	Balance     decimal.Decimal
}

// factDateRecord marks a calendar date as having at least one fact. The set
// of these records is the fact calendar date resolution walks.
type factDateRecord struct {
	Date string `badgerhold:"key"`
}

type clientLinkRecord struct {
	AccountID  string `badgerhold:"key"`
	ClientID   string
	ClientName string
}

type fundRecord struct {
	FundName string `badgerhold:"key"`
	Ticker   string
}

// FactStore implements interfaces.FactStore over BadgerDB.
type FactStore struct {
	db     *CETDB
	logger *common.Logger
}

// NewFactStore creates a fact store backed by BadgerDB.
func NewFactStore(db *CETDB, logger *common.Logger) *FactStore {
	return &FactStore{
		db:     db,
		logger: logger,
	}
}

func factKey(accountID, fundName, date string) string {
	return accountID + "|" + fundName + "|" + date
}

// PutFacts upserts balance facts and registers their dates in the fact
// calendar.
func (s *FactStore) PutFacts(_ context.Context, facts []models.BalanceFact) error {
	for _, f := range facts {
		date := f.BalanceDate.Format(models.DateFormat)
		rec := factRecord{
			Key:         factKey(f.AccountID, f.FundName, date),
			AccountID:   f.AccountID,
			FundName:    f.FundName,
			BalanceDate: date,
			Balance:     f.Balance,
		}
		if err := s.db.Store().Upsert(rec.Key, &rec); err != nil {
			return fmt.Errorf("failed to store fact %s: %w", rec.Key, err)
		}
		if err := s.db.Store().Upsert(date, &factDateRecord{Date: date}); err != nil {
			return fmt.Errorf("failed to store fact date %s: %w", date, err)
		}
	}
	return nil
}

// PutClientLinks upserts account-to-client mappings.
func (s *FactStore) PutClientLinks(_ context.Context, links []models.ClientLink) error {
	for _, l := range links {
		rec := clientLinkRecord{AccountID: l.AccountID, ClientID: l.ClientID, ClientName: l.ClientName}
		if err := s.db.Store().Upsert(l.AccountID, &rec); err != nil {
			return fmt.Errorf("failed to store client link %s: %w", l.AccountID, err)
		}
	}
	return nil
}

// PutFunds upserts fund directory entries.
func (s *FactStore) PutFunds(_ context.Context, funds []models.FundInfo) error {
	for _, f := range funds {
		rec := fundRecord{FundName: f.FundName, Ticker: f.Ticker}
		if err := s.db.Store().Upsert(f.FundName, &rec); err != nil {
			return fmt.Errorf("failed to store fund %s: %w", f.FundName, err)
		}
	}
	return nil
}

// FactsAt returns joined rows for facts on the given date matching pred.
func (s *FactStore) FactsAt(ctx context.Context, pred models.Predicate, date time.Time) ([]models.FactRow, error) {
	d := date.Format(models.DateFormat)
	var recs []factRecord
	err := s.db.Store().Find(&recs, badgerhold.Where("BalanceDate").Eq(d).Index("BalanceDate"))
	if err != nil {
		return nil, fmt.Errorf("failed to load facts for %s: %w", d, err)
	}
	return s.join(ctx, recs, pred)
}

// FactsRange returns joined rows for facts with from <= date <= to matching
// pred.
func (s *FactStore) FactsRange(ctx context.Context, pred models.Predicate, from, to time.Time) ([]models.FactRow, error) {
	lo := from.Format(models.DateFormat)
	hi := to.Format(models.DateFormat)
	var recs []factRecord
	err := s.db.Store().Find(&recs, badgerhold.Where("BalanceDate").Ge(lo).And("BalanceDate").Le(hi).Index("BalanceDate"))
	if err != nil {
		return nil, fmt.Errorf("failed to load facts for %s..%s: %w", lo, hi, err)
	}
	return s.join(ctx, recs, pred)
}

// ResolveDate returns the latest fact date on or before d.
func (s *FactStore) ResolveDate(_ context.Context, d time.Time) (time.Time, bool, error) {
	bound := d.Format(models.DateFormat)
	var dates []factDateRecord
	err := s.db.Store().Find(&dates, badgerhold.Where(badgerhold.Key).Le(bound))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to resolve date %s: %w", bound, err)
	}
	best := ""
	for _, rec := range dates {
		if rec.Date > best {
			best = rec.Date
		}
	}
	if best == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(models.DateFormat, best)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt fact date %q: %w", best, err)
	}
	return t, true, nil
}

// LatestFactDate returns the latest date carrying any fact.
func (s *FactStore) LatestFactDate(_ context.Context) (time.Time, bool, error) {
	var dates []factDateRecord
	err := s.db.Store().Find(&dates, nil)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load fact dates: %w", err)
	}
	best := ""
	for _, rec := range dates {
		if rec.Date > best {
			best = rec.Date
		}
	}
	if best == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(models.DateFormat, best)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt fact date %q: %w", best, err)
	}
	return t, true, nil
}

// join loads the client mapping and fund directory when pred requires them
// and evaluates pred over the joined rows.
func (s *FactStore) join(_ context.Context, recs []factRecord, pred models.Predicate) ([]models.FactRow, error) {
	facts := make([]models.BalanceFact, 0, len(recs))
	for _, rec := range recs {
		d, err := time.Parse(models.DateFormat, rec.BalanceDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt fact date %q: %w", rec.BalanceDate, err)
		}
		facts = append(facts, models.BalanceFact{
			AccountID:   rec.AccountID,
			FundName:    rec.FundName,
			BalanceDate: d,
			Balance:     rec.Balance,
		})
	}

	var links map[string]models.ClientLink
	if pred.NeedsClientLink() {
		var recs []clientLinkRecord
		if err := s.db.Store().Find(&recs, nil); err != nil {
			return nil, fmt.Errorf("failed to load client mapping: %w", err)
		}
		links = make(map[string]models.ClientLink, len(recs))
		for _, rec := range recs {
			links[rec.AccountID] = models.ClientLink{AccountID: rec.AccountID, ClientID: rec.ClientID, ClientName: rec.ClientName}
		}
	}

	var funds map[string]models.FundInfo
	if pred.NeedsFundInfo() {
		var recs []fundRecord
		if err := s.db.Store().Find(&recs, nil); err != nil {
			return nil, fmt.Errorf("failed to load fund directory: %w", err)
		}
		funds = make(map[string]models.FundInfo, len(recs))
		for _, rec := range recs {
			funds[rec.FundName] = models.FundInfo{FundName: rec.FundName, Ticker: rec.Ticker}
		}
	}

	return models.BuildRows(facts, links, funds, pred), nil
}
