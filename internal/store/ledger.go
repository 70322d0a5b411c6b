package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// appendStarsTx writes one ledger row and moves the child's balance to match,
// inside the caller's transaction. The two writes are never split across
// transactions anywhere in the engine. Debits clamp at zero: the recorded
// delta is the effective one, so the ledger sum always equals the balance.
func appendStarsTx(tx *sql.Tx, childID int64, delta int, reason string, now time.Time) (*model.StarHistoryEntry, error) {
	var balance int
	err := tx.QueryRow(`SELECT total_stars FROM children WHERE id = ?`, childID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: child %d", domain.ErrNotFound, childID)
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	effective := delta
	if balance+effective < 0 {
		effective = -balance
	}
	balanceAfter := balance + effective

	result, err := tx.Exec(
		`INSERT INTO star_history (child_id, stars, reason, balance_after, created_at) VALUES (?, ?, ?, ?, ?)`,
		childID, effective, reason, balanceAfter, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert star history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE children SET total_stars = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		balanceAfter, childID,
	); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	return &model.StarHistoryEntry{
		ID:           id,
		ChildID:      childID,
		Stars:        effective,
		Reason:       reason,
		BalanceAfter: balanceAfter,
		CreatedAt:    now.UTC(),
	}, nil
}

// Adjust posts a manual signed delta with a reason, independent of any gig.
func (s *LedgerStore) Adjust(childID int64, delta int, reason string, now time.Time) (*model.StarHistoryEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, err := appendStarsTx(tx, childID, delta, reason, now)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return entry, nil
}

func scanStarEntry(scanner interface{ Scan(...any) error }) (*model.StarHistoryEntry, error) {
	var e model.StarHistoryEntry
	err := scanner.Scan(&e.ID, &e.ChildID, &e.Stars, &e.Reason, &e.BalanceAfter, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const starEntryCols = `id, child_id, stars, reason, balance_after, created_at`

func (s *LedgerStore) ListByChild(childID int64) ([]model.StarHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+starEntryCols+` FROM star_history WHERE child_id = ? ORDER BY created_at DESC, id DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list star history: %w", err)
	}
	defer rows.Close()

	var entries []model.StarHistoryEntry
	for rows.Next() {
		e, err := scanStarEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan star entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SumByChild computes the authoritative balance from the ledger.
func (s *LedgerStore) SumByChild(childID int64) (int, error) {
	var sum sql.NullInt64
	err := s.db.QueryRow(`SELECT COALESCE(SUM(stars), 0) FROM star_history WHERE child_id = ?`, childID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum star history: %w", err)
	}
	return int(sum.Int64), nil
}

// Reconcile recomputes the child's balance from the ledger sum. The ledger is
// authoritative on any mismatch. Returns the corrected balance and whether a
// mismatch was found.
func (s *LedgerStore) Reconcile(childID int64) (int, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRow(`SELECT total_stars FROM children WHERE id = ?`, childID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, false, fmt.Errorf("%w: child %d", domain.ErrNotFound, childID)
	}
	if err != nil {
		return 0, false, fmt.Errorf("get balance: %w", err)
	}

	var sum sql.NullInt64
	if err := tx.QueryRow(`SELECT COALESCE(SUM(stars), 0) FROM star_history WHERE child_id = ?`, childID).Scan(&sum); err != nil {
		return 0, false, fmt.Errorf("sum star history: %w", err)
	}

	authoritative := int(sum.Int64)
	if authoritative < 0 {
		authoritative = 0
	}
	if authoritative == balance {
		return balance, false, nil
	}

	if _, err := tx.Exec(
		`UPDATE children SET total_stars = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		authoritative, childID,
	); err != nil {
		return 0, false, fmt.Errorf("update balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit: %w", err)
	}
	return authoritative, true, nil
}
