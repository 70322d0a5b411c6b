package store

import (
	"database/sql"
	"fmt"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Append(childID *int64, message string) error {
	var cID sql.NullInt64
	if childID != nil {
		cID = sql.NullInt64{Int64: *childID, Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO activity_log (child_id, message) VALUES (?, ?)`, cID, message)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (s *ActivityStore) ListRecent(limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, child_id, message, created_at FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		var childID sql.NullInt64
		if err := rows.Scan(&e.ID, &childID, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if childID.Valid {
			e.ChildID = &childID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
