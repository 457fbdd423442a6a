/*
Package sqlite provides a SQLite-backed Repository for the funding calculator.

KEY TABLES:

	rate_schedules:            one JSON document per schedule
	fundings:                  one JSON document per funding record
	funding_amounts:           one row per saved calculation run, a TEXT column per envelope value
	                           and the run's error messages as a JSON array
	default_space_allocations: the current per-tier allocation of room-split facilities

Money is stored as decimal strings so values round-trip exactly.

USAGE:

	store, err := sqlite.New("./data/ofm.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	calc := calculation.NewFundingCalculator(store)
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/shopspring/decimal"
)

var _ calculation.Repository = (*Store)(nil)

// envelopes is the column order of funding_amounts
var envelopes = append([]domain.Envelope{domain.EnvelopeHRTotal}, domain.AllocatedEnvelopes...)

// Store implements calculation.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func amountColumns() []string {
	cols := make([]string, 0, 2*len(envelopes))
	for _, e := range envelopes {
		cols = append(cols, "projected_"+string(e))
	}
	for _, e := range envelopes {
		cols = append(cols, "parent_fee_"+string(e))
	}
	return cols
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	var amountDefs strings.Builder
	for _, col := range amountColumns() {
		fmt.Fprintf(&amountDefs, "\t\t%s TEXT NOT NULL DEFAULT '0',\n", col)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS rate_schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		active BOOLEAN DEFAULT FALSE,
		schedule_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fundings (
		id TEXT PRIMARY KEY,
		funding_number_base TEXT NOT NULL DEFAULT '',
		rate_schedule_id TEXT NOT NULL DEFAULT '',
		funding_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS funding_amounts (
		run_id TEXT PRIMARY KEY,
		funding_id TEXT NOT NULL REFERENCES fundings(id),
		decision TEXT NOT NULL,
` + amountDefs.String() + `		errors TEXT NOT NULL DEFAULT '[]',
		calculated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_funding_amounts_funding
		ON funding_amounts(funding_id, calculated_at DESC);

	CREATE TABLE IF NOT EXISTS default_space_allocations (
		id TEXT PRIMARY KEY,
		funding_id TEXT NOT NULL REFERENCES fundings(id),
		licence_detail_id TEXT NOT NULL,
		licence_type TEXT NOT NULL,
		ratio_tier_id TEXT NOT NULL,
		group_size INTEGER NOT NULL DEFAULT 0,
		groups_count INTEGER NOT NULL DEFAULT 0,
		default_spaces INTEGER NOT NULL DEFAULT 0,
		adjusted_spaces INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_funding
		ON default_space_allocations(funding_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RATE SCHEDULES & FUNDINGS
// =============================================================================

// PutRateSchedule inserts or replaces a rate schedule
func (s *Store) PutRateSchedule(ctx context.Context, rs domain.RateSchedule) error {
	if rs.ID == "" {
		return errors.New("rate schedule id is required")
	}
	doc, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to encode rate schedule %s: %w", rs.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rate_schedules (id, name, active, schedule_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			schedule_json = excluded.schedule_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, rs.ID, rs.Name, rs.Active, string(doc), now, now)
	return err
}

// PutFunding inserts or replaces a funding record
func (s *Store) PutFunding(ctx context.Context, f domain.Funding) error {
	if f.ID == "" {
		return errors.New("funding id is required")
	}
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode funding %s: %w", f.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO fundings (id, funding_number_base, rate_schedule_id, funding_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			funding_number_base = excluded.funding_number_base,
			rate_schedule_id = excluded.rate_schedule_id,
			funding_json = excluded.funding_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, f.ID, f.FundingNumberBase, f.RateScheduleID, string(doc), now, now)
	return err
}

// LoadRateSchedules returns all schedules ordered by ID
func (s *Store) LoadRateSchedules(ctx context.Context) ([]domain.RateSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, schedule_json FROM rate_schedules ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RateSchedule
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var rs domain.RateSchedule
		if err := json.Unmarshal([]byte(doc), &rs); err != nil {
			return nil, fmt.Errorf("failed to decode rate schedule %s: %w", id, err)
		}
		result = append(result, rs)
	}
	return result, rows.Err()
}

func (s *Store) GetFundingByID(ctx context.Context, id string) (*domain.Funding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT funding_json FROM fundings WHERE id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("funding %s: %w", id, domain.ErrFundingNotFound)
	}
	if err != nil {
		return nil, err
	}

	var f domain.Funding
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return nil, fmt.Errorf("failed to decode funding %s: %w", id, err)
	}
	return &f, nil
}

// ListFundingIDs returns every stored funding ID in order
func (s *Store) ListFundingIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM fundings ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// FUNDING AMOUNTS
// =============================================================================

// SaveFundingAmounts stores one calculation run. Results without amounts are rejected.
func (s *Store) SaveFundingAmounts(ctx context.Context, result *domain.FundingResult) error {
	if result == nil {
		return errors.New("nil funding result")
	}
	amounts := result.Amounts()
	if amounts == nil {
		return fmt.Errorf("funding %s: result has no amounts", result.FundingID())
	}

	messages := result.Errors()
	if messages == nil {
		messages = []string{}
	}
	errorsJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("funding %s: errors: %w", result.FundingID(), err)
	}

	cols := resultColumns()
	args := []any{result.RunID(), result.FundingID(), string(result.Decision())}
	for _, e := range envelopes {
		args = append(args, amounts.Projected(e).String())
	}
	for _, e := range envelopes {
		args = append(args, amounts.ParentFee(e).String())
	}
	args = append(args, string(errorsJSON), result.CalculatedAt().UTC().Format(time.RFC3339Nano))

	query := fmt.Sprintf("INSERT INTO funding_amounts (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// resultColumns is the funding_amounts column order used by inserts and scans
func resultColumns() []string {
	cols := append([]string{"run_id", "funding_id", "decision"}, amountColumns()...)
	return append(cols, "errors", "calculated_at")
}

// FundingAmountsHistory returns every saved run for a funding, oldest first
func (s *Store) FundingAmountsHistory(ctx context.Context, fundingID string) ([]*domain.FundingResult, error) {
	cols := resultColumns()
	query := fmt.Sprintf("SELECT %s FROM funding_amounts WHERE funding_id = ? ORDER BY calculated_at, rowid",
		strings.Join(cols, ", "))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, fundingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*domain.FundingResult
	for rows.Next() {
		r, err := scanFundingAmounts(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanFundingAmounts(rows *sql.Rows) (*domain.FundingResult, error) {
	var runID, fundingID, decision, errorsJSON, calculatedAt string
	values := make([]string, 2*len(envelopes))
	dest := []any{&runID, &fundingID, &decision}
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &errorsJSON, &calculatedAt)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	var messages []string
	if err := json.Unmarshal([]byte(errorsJSON), &messages); err != nil {
		return nil, fmt.Errorf("run %s: errors: %w", runID, err)
	}
	// only error-free runs are saved
	if len(messages) > 0 {
		return nil, fmt.Errorf("run %s: stored with %d errors", runID, len(messages))
	}

	var amounts domain.FundingAmounts
	for i, e := range envelopes {
		projected, err := decimal.NewFromString(values[i])
		if err != nil {
			return nil, fmt.Errorf("run %s: projected %s: %w", runID, e, err)
		}
		parentFee, err := decimal.NewFromString(values[len(envelopes)+i])
		if err != nil {
			return nil, fmt.Errorf("run %s: parent fee %s: %w", runID, e, err)
		}
		amounts.SetProjected(e, projected)
		amounts.SetParentFee(e, parentFee)
	}

	at, err := time.Parse(time.RFC3339Nano, calculatedAt)
	if err != nil {
		return nil, fmt.Errorf("run %s: calculated_at: %w", runID, err)
	}

	switch domain.Decision(decision) {
	case domain.DecisionAuto:
		return domain.NewAutoResult(runID, fundingID, amounts, at), nil
	case domain.DecisionManual:
		return domain.NewManualResult(runID, fundingID, amounts, at), nil
	default:
		return nil, fmt.Errorf("run %s: unexpected decision %q", runID, decision)
	}
}

// =============================================================================
// DEFAULT SPACE ALLOCATIONS
// =============================================================================

// SaveDefaultSpacesAllocation replaces a funding's allocations atomically
func (s *Store) SaveDefaultSpacesAllocation(ctx context.Context, fundingID string, allocations []domain.SpaceAllocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM default_space_allocations WHERE funding_id = ?", fundingID); err != nil {
		return err
	}

	query := `
		INSERT INTO default_space_allocations
			(id, funding_id, licence_detail_id, licence_type, ratio_tier_id, group_size, groups_count, default_spaces, adjusted_spaces, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, a := range allocations {
		if a.ID == "" {
			return fmt.Errorf("funding %s: allocation for tier %s has no id", fundingID, a.RatioTierID)
		}
		if _, err := tx.ExecContext(ctx, query,
			a.ID, fundingID, a.LicenceDetailID, a.LicenceType, a.RatioTierID,
			a.GroupSize, a.Groups, a.DefaultSpaces, a.AdjustedSpaces, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DefaultSpacesAllocation returns the saved allocations for a funding
func (s *Store) DefaultSpacesAllocation(ctx context.Context, fundingID string) ([]domain.SpaceAllocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, funding_id, licence_detail_id, licence_type, ratio_tier_id, group_size, groups_count, default_spaces, adjusted_spaces
		FROM default_space_allocations WHERE funding_id = ? ORDER BY rowid`, fundingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SpaceAllocation
	for rows.Next() {
		var a domain.SpaceAllocation
		if err := rows.Scan(&a.ID, &a.FundingID, &a.LicenceDetailID, &a.LicenceType, &a.RatioTierID,
			&a.GroupSize, &a.Groups, &a.DefaultSpaces, &a.AdjustedSpaces); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
