package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type SubmissionStore struct {
	db *sql.DB
}

func NewSubmissionStore(db *sql.DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

func scanSubmission(scanner interface{ Scan(...any) error }) (*model.CompletionSubmission, error) {
	var sub model.CompletionSubmission
	var escalated int

	err := scanner.Scan(
		&sub.ID, &sub.EntityType, &sub.EntityID, &sub.ChildID,
		&sub.StorageKey, &sub.Note, &sub.Status, &sub.Attempt,
		&escalated, &sub.AIFeedback, &sub.ReviewedBy,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Escalated = escalated != 0
	return &sub, nil
}

const submissionCols = `id, entity_type, entity_id, child_id, storage_key, note, status, attempt, escalated, ai_feedback, reviewed_by, created_at, updated_at`

// Create inserts a new submission row. The attempt number continues the
// chain for the same (entity, child); prior rows are never touched.
func (s *SubmissionStore) Create(entityType model.EntityType, entityID, childID int64, storageKey, note string, status model.SubmissionStatus, now time.Time) (*model.CompletionSubmission, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var attempt int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(attempt), 0) + 1 FROM completion_submissions WHERE entity_type = ? AND entity_id = ? AND child_id = ?`,
		entityType, entityID, childID,
	).Scan(&attempt)
	if err != nil {
		return nil, fmt.Errorf("next attempt: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO completion_submissions (entity_type, entity_id, child_id, storage_key, note, status, attempt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entityType, entityID, childID, storageKey, note, status, attempt, now.UTC(), now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
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

func (s *SubmissionStore) GetByID(id int64) (*model.CompletionSubmission, error) {
	row := s.db.QueryRow(`SELECT `+submissionCols+` FROM completion_submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// ListChain returns every attempt for an entity and child, oldest first.
func (s *SubmissionStore) ListChain(entityType model.EntityType, entityID, childID int64) ([]model.CompletionSubmission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionCols+` FROM completion_submissions
		 WHERE entity_type = ? AND entity_id = ? AND child_id = ?
		 ORDER BY attempt ASC`,
		entityType, entityID, childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list submission chain: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ListByStatus returns submissions in one status, oldest first (a review queue).
func (s *SubmissionStore) ListByStatus(status model.SubmissionStatus) ([]model.CompletionSubmission, error) {
	rows, err := s.db.Query(
		`SELECT `+submissionCols+` FROM completion_submissions WHERE status = ? ORDER BY created_at ASC`,
		status,
	)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func collectSubmissions(rows *sql.Rows) ([]model.CompletionSubmission, error) {
	var subs []model.CompletionSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// SetAIResult applies the evaluator's verdict. Only legal while the
// submission is waiting on AI review.
func (s *SubmissionStore) SetAIResult(id int64, status model.SubmissionStatus, feedback string, now time.Time) (*model.CompletionSubmission, error) {
	result, err := s.db.Exec(
		`UPDATE completion_submissions SET status = ?, ai_feedback = ?, updated_at = ? WHERE id = ? AND status = 'ai_reviewing'`,
		status, feedback, now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set ai result: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "apply AI result to")
}

// Escalate forces human judgment, bypassing further AI review. Only legal
// from ai_reviewing or needs_revision.
func (s *SubmissionStore) Escalate(id int64, now time.Time) (*model.CompletionSubmission, error) {
	result, err := s.db.Exec(
		`UPDATE completion_submissions SET status = 'pending_review', escalated = 1, updated_at = ?
		 WHERE id = ? AND status IN ('ai_reviewing', 'needs_revision')`,
		now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("escalate submission: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "escalate")
}

// HumanReview records a terminal verdict. Legal from any non-terminal state.
func (s *SubmissionStore) HumanReview(id int64, status model.SubmissionStatus, reviewer string, now time.Time) (*model.CompletionSubmission, error) {
	result, err := s.db.Exec(
		`UPDATE completion_submissions SET status = ?, reviewed_by = ?, updated_at = ?
		 WHERE id = ? AND status IN ('ai_reviewing', 'pending_review', 'needs_revision')`,
		status, reviewer, now.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("human review: %w", err)
	}
	return s.afterGuardedUpdate(id, result, "review")
}

func (s *SubmissionStore) afterGuardedUpdate(id int64, result sql.Result, op string) (*model.CompletionSubmission, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		sub, err := s.GetByID(id)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, fmt.Errorf("%w: submission %d", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: cannot %s submission in status %s", domain.ErrInvalidState, op, sub.Status)
	}
	return s.GetByID(id)
}
