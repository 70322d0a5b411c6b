package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type ScreenTimeStore struct {
	db *sql.DB
}

func NewScreenTimeStore(db *sql.DB) *ScreenTimeStore {
	return &ScreenTimeStore{db: db}
}

// --- Daily expectation methods ---

func scanExpectation(scanner interface{ Scan(...any) error }) (*model.DailyExpectation, error) {
	var e model.DailyExpectation
	var exercise, reading, tidyUp, dailyChore int

	err := scanner.Scan(&e.ID, &e.ChildID, &e.Date, &exercise, &reading, &tidyUp, &dailyChore, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.Exercise = exercise != 0
	e.Reading = reading != 0
	e.TidyUp = tidyUp != 0
	e.DailyChore = dailyChore != 0
	return &e, nil
}

const expectationCols = `id, child_id, date, exercise, reading, tidy_up, daily_chore, updated_at`

// UpsertExpectation writes the day's four flags, one row per (child, date).
func (s *ScreenTimeStore) UpsertExpectation(childID int64, date string, exercise, reading, tidyUp, dailyChore bool) (*model.DailyExpectation, error) {
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	_, err := s.db.Exec(
		`INSERT INTO daily_expectations (child_id, date, exercise, reading, tidy_up, daily_chore)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (child_id, date) DO UPDATE SET
		   exercise = excluded.exercise, reading = excluded.reading,
		   tidy_up = excluded.tidy_up, daily_chore = excluded.daily_chore,
		   updated_at = CURRENT_TIMESTAMP`,
		childID, date, b(exercise), b(reading), b(tidyUp), b(dailyChore),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert expectation: %w", err)
	}
	return s.GetExpectation(childID, date)
}

// GetExpectation returns the day's flags, or nil when nothing was recorded.
func (s *ScreenTimeStore) GetExpectation(childID int64, date string) (*model.DailyExpectation, error) {
	row := s.db.QueryRow(
		`SELECT `+expectationCols+` FROM daily_expectations WHERE child_id = ? AND date = ?`,
		childID, date,
	)
	e, err := scanExpectation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expectation: %w", err)
	}
	return e, nil
}

// --- Session methods ---

func scanSession(scanner interface{ Scan(...any) error }) (*model.ScreenTimeSession, error) {
	var sess model.ScreenTimeSession
	var weekend int
	var unlockedAt, lockedAt sql.NullTime

	err := scanner.Scan(
		&sess.ID, &sess.ChildID, &sess.Date, &sess.BaseMinutes, &sess.BonusMinutes,
		&sess.ParentBonusMinutes, &sess.TotalMinutes, &sess.MinutesUsed, &weekend,
		&unlockedAt, &lockedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.Weekend = weekend != 0
	if unlockedAt.Valid {
		sess.UnlockedAt = &unlockedAt.Time
	}
	if lockedAt.Valid {
		sess.LockedAt = &lockedAt.Time
	}
	return &sess, nil
}

const sessionCols = `id, child_id, date, base_minutes, bonus_minutes, parent_bonus_minutes, total_minutes, minutes_used, weekend, unlocked_at, locked_at`

func (s *ScreenTimeStore) GetSession(childID int64, date string) (*model.ScreenTimeSession, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM screen_time_sessions WHERE child_id = ? AND date = ?`,
		childID, date,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// UnlockSession lazily creates the day's session and stamps unlocked_at.
// Re-unlocking an existing session refreshes the allowance but keeps the
// original unlock timestamp.
func (s *ScreenTimeStore) UnlockSession(childID int64, date string, base, bonus int, weekend bool, now time.Time) (*model.ScreenTimeSession, error) {
	var w int
	if weekend {
		w = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO screen_time_sessions (child_id, date, base_minutes, bonus_minutes, total_minutes, weekend, unlocked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (child_id, date) DO UPDATE SET
		   base_minutes = excluded.base_minutes,
		   bonus_minutes = excluded.bonus_minutes,
		   total_minutes = excluded.base_minutes + excluded.bonus_minutes + screen_time_sessions.parent_bonus_minutes,
		   unlocked_at = COALESCE(screen_time_sessions.unlocked_at, excluded.unlocked_at),
		   locked_at = NULL`,
		childID, date, base, bonus, base+bonus, w, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("unlock session: %w", err)
	}
	return s.GetSession(childID, date)
}

// RederiveBonus refreshes an existing session's gig-derived bonus minutes
// after another gig approval the same day. Parent-granted minutes live in
// their own column and are never touched here. No-op when no session exists
// yet; the bonus will be picked up at unlock time.
func (s *ScreenTimeStore) RederiveBonus(childID int64, date string, bonus int) (*model.ScreenTimeSession, error) {
	_, err := s.db.Exec(
		`UPDATE screen_time_sessions
		 SET bonus_minutes = ?, total_minutes = base_minutes + ? + parent_bonus_minutes
		 WHERE child_id = ? AND date = ?`,
		bonus, bonus, childID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("rederive bonus: %w", err)
	}
	return s.GetSession(childID, date)
}

// LockSession stamps locked_at on the day's session.
func (s *ScreenTimeStore) LockSession(childID int64, date string, now time.Time) (*model.ScreenTimeSession, error) {
	_, err := s.db.Exec(
		`UPDATE screen_time_sessions SET locked_at = ? WHERE child_id = ? AND date = ?`,
		now.UTC(), childID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	return s.GetSession(childID, date)
}

// AddUsage records minutes consumed against the day's budget.
func (s *ScreenTimeStore) AddUsage(childID int64, date string, minutes int) (*model.ScreenTimeSession, error) {
	_, err := s.db.Exec(
		`UPDATE screen_time_sessions SET minutes_used = minutes_used + ? WHERE child_id = ? AND date = ?`,
		minutes, childID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("add usage: %w", err)
	}
	return s.GetSession(childID, date)
}

// AddParentBonus grants extra minutes on top of the derived allowance. This
// is the parental override path; it bypasses the eligibility gate entirely
// and creates the session if needed. The extra goes into parent_bonus_minutes
// so later gig-bonus re-derivation cannot claw it back.
func (s *ScreenTimeStore) AddParentBonus(childID int64, date string, base, extra int, weekend bool, now time.Time) (*model.ScreenTimeSession, error) {
	var w int
	if weekend {
		w = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO screen_time_sessions (child_id, date, base_minutes, parent_bonus_minutes, total_minutes, weekend, unlocked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (child_id, date) DO UPDATE SET
		   parent_bonus_minutes = screen_time_sessions.parent_bonus_minutes + ?,
		   total_minutes = screen_time_sessions.total_minutes + ?`,
		childID, date, base, extra, base+extra, w, now.UTC(), extra, extra,
	)
	if err != nil {
		return nil, fmt.Errorf("add parent bonus: %w", err)
	}
	return s.GetSession(childID, date)
}
