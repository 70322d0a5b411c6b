package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type TimeoutStore struct {
	db *sql.DB
}

func NewTimeoutStore(db *sql.DB) *TimeoutStore {
	return &TimeoutStore{db: db}
}

func scanTimeout(scanner interface{ Scan(...any) error }) (*model.TimeoutRecord, error) {
	var r model.TimeoutRecord
	var doubled int
	var servingStarted, servedAt, completedAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.ChildID, &r.Kind, &r.Category, &r.BaseMinutes,
		&r.ResetCount, &doubled, &r.Status, &r.StartedAt,
		&servingStarted, &servedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Doubled = doubled != 0
	if servingStarted.Valid {
		r.ServingStarted = &servingStarted.Time
	}
	if servedAt.Valid {
		r.ServedAt = &servedAt.Time
	}
	if completedAt.Valid {
		r.CompletedAt = &completedAt.Time
	}
	return &r, nil
}

const timeoutCols = `id, child_id, kind, category, base_minutes, reset_count, doubled, status, started_at, serving_started, served_at, completed_at`

// Create logs a new violation. At most one non-terminal timeout may exist per
// child; the check and insert share a transaction, backed by a partial unique
// index in the schema.
func (s *TimeoutStore) Create(childID int64, kind, category string, baseMinutes int, doubled bool, now time.Time) (*model.TimeoutRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var open int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM timeout_records WHERE child_id = ? AND status IN ('open', 'serving', 'served')`,
		childID,
	).Scan(&open)
	if err != nil {
		return nil, fmt.Errorf("count open timeouts: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: child %d already has an open timeout", domain.ErrConflict, childID)
	}

	var d int
	if doubled {
		d = 1
	}
	result, err := tx.Exec(
		`INSERT INTO timeout_records (child_id, kind, category, base_minutes, doubled, status, started_at) VALUES (?, ?, ?, ?, ?, 'open', ?)`,
		childID, kind, category, baseMinutes, d, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert timeout: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *TimeoutStore) GetByID(id int64) (*model.TimeoutRecord, error) {
	row := s.db.QueryRow(`SELECT `+timeoutCols+` FROM timeout_records WHERE id = ?`, id)
	r, err := scanTimeout(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get timeout: %w", err)
	}
	return r, nil
}

// GetOpenByChild returns the child's non-terminal timeout, or nil.
func (s *TimeoutStore) GetOpenByChild(childID int64) (*model.TimeoutRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+timeoutCols+` FROM timeout_records WHERE child_id = ? AND status IN ('open', 'serving', 'served')`,
		childID,
	)
	r, err := scanTimeout(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open timeout: %w", err)
	}
	return r, nil
}

func (s *TimeoutStore) ListByChild(childID int64) ([]model.TimeoutRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+timeoutCols+` FROM timeout_records WHERE child_id = ? ORDER BY started_at DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list timeouts: %w", err)
	}
	defer rows.Close()

	var records []model.TimeoutRecord
	for rows.Next() {
		r, err := scanTimeout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timeout: %w", err)
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

// Reset restarts the clock: increments the count, re-stamps started_at, and
// discards any serving progress. Only legal while non-terminal.
func (s *TimeoutStore) Reset(id int64, now time.Time) (*model.TimeoutRecord, error) {
	result, err := s.db.Exec(
		`UPDATE timeout_records
		 SET reset_count = reset_count + 1, started_at = ?, serving_started = NULL, served_at = NULL, status = 'open'
		 WHERE id = ? AND status IN ('open', 'serving', 'served')`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("reset timeout: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "reset")
}

// StartServing begins the countdown.
func (s *TimeoutStore) StartServing(id int64, now time.Time) (*model.TimeoutRecord, error) {
	result, err := s.db.Exec(
		`UPDATE timeout_records SET status = 'serving', serving_started = ? WHERE id = ? AND status = 'open'`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("start serving: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "start serving")
}

// MarkServed stamps the end of the countdown. A duplicate call is a no-op:
// the null-check guard makes retries idempotent.
func (s *TimeoutStore) MarkServed(id int64, now time.Time) (*model.TimeoutRecord, error) {
	_, err := s.db.Exec(
		`UPDATE timeout_records SET status = 'served', served_at = ? WHERE id = ? AND status = 'serving' AND served_at IS NULL`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark served: %w", err)
	}

	r, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: timeout %d", domain.ErrNotFound, id)
	}
	if r.Status != model.TimeoutServed && r.Status != model.TimeoutServing {
		return nil, fmt.Errorf("%w: cannot mark served from %s", domain.ErrInvalidState, r.Status)
	}
	return r, nil
}

// Complete closes the record after the timeout was served. Terminal.
func (s *TimeoutStore) Complete(id int64, now time.Time) (*model.TimeoutRecord, error) {
	result, err := s.db.Exec(
		`UPDATE timeout_records SET status = 'completed', completed_at = ? WHERE id = ? AND status IN ('open', 'serving', 'served')`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("complete timeout: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "complete")
}

// Dismiss cancels the record without requiring the time be served. Terminal.
func (s *TimeoutStore) Dismiss(id int64, now time.Time) (*model.TimeoutRecord, error) {
	result, err := s.db.Exec(
		`UPDATE timeout_records SET status = 'dismissed', completed_at = ? WHERE id = ? AND status IN ('open', 'serving', 'served')`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("dismiss timeout: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "dismiss")
}

// afterGuardedUpdate resolves a zero-rows-affected guard failure into
// NotFound or InvalidState, and otherwise returns the fresh record.
func (s *TimeoutStore) afterGuardedUpdate(id int64, result sql.Result, op string) (*model.TimeoutRecord, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		r, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("%w: timeout %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: cannot %s timeout in status %s", domain.ErrInvalidState, op, r.Status)
	}
	return s.GetByID(id)
}
