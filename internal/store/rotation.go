package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type RotationStore struct {
	db *sql.DB
}

func NewRotationStore(db *sql.DB) *RotationStore {
	return &RotationStore{db: db}
}

// --- Rotation state ---

func (s *RotationStore) GetState() (*model.RotationState, error) {
	var state model.RotationState
	var rotatedAt sql.NullTime
	err := s.db.QueryRow(`SELECT active_week, rotated_at FROM rotation_state WHERE id = 1`).
		Scan(&state.ActiveWeek, &rotatedAt)
	if err != nil {
		return nil, fmt.Errorf("get rotation state: %w", err)
	}
	if rotatedAt.Valid {
		state.RotatedAt = &rotatedAt.Time
	}
	return &state, nil
}

// SetActiveWeek records an explicit rotation to the given week.
func (s *RotationStore) SetActiveWeek(week string, now time.Time) (*model.RotationState, error) {
	_, err := s.db.Exec(`UPDATE rotation_state SET active_week = ?, rotated_at = ? WHERE id = 1`, week, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("set active week: %w", err)
	}
	return s.GetState()
}

// --- Assignments ---

func (s *RotationStore) UpsertAssignment(childID int64, week, zone string) (*model.ChoreAssignment, error) {
	_, err := s.db.Exec(
		`INSERT INTO chore_assignments (child_id, week, zone) VALUES (?, ?, ?)
		 ON CONFLICT (child_id, week) DO UPDATE SET zone = excluded.zone`,
		childID, week, zone,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert assignment: %w", err)
	}

	var a model.ChoreAssignment
	err = s.db.QueryRow(
		`SELECT id, child_id, week, zone FROM chore_assignments WHERE child_id = ? AND week = ?`,
		childID, week,
	).Scan(&a.ID, &a.ChildID, &a.Week, &a.Zone)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

func (s *RotationStore) ListAssignments() ([]model.ChoreAssignment, error) {
	rows, err := s.db.Query(`SELECT id, child_id, week, zone FROM chore_assignments ORDER BY child_id ASC, week ASC`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.ChoreAssignment
	for rows.Next() {
		var a model.ChoreAssignment
		if err := rows.Scan(&a.ID, &a.ChildID, &a.Week, &a.Zone); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// GetZone resolves a child's zone for a rotation week. Empty string when the
// child has no assignment for that week.
func (s *RotationStore) GetZone(childID int64, week string) (string, error) {
	var zone string
	err := s.db.QueryRow(
		`SELECT zone FROM chore_assignments WHERE child_id = ? AND week = ?`,
		childID, week,
	).Scan(&zone)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get zone: %w", err)
	}
	return zone, nil
}

// --- Rooms ---

func scanRoom(scanner interface{ Scan(...any) error }) (*model.ChoreRoom, error) {
	var r model.ChoreRoom
	var checklist string

	if err := scanner.Scan(&r.ID, &r.Zone, &r.Weekday, &r.Room, &checklist); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(checklist), &r.Checklist); err != nil {
		r.Checklist = nil
	}
	return &r, nil
}

const roomCols = `id, zone, weekday, room, checklist`

func (s *RotationStore) UpsertRoom(zone string, weekday int, room string, checklist []string) (*model.ChoreRoom, error) {
	if checklist == nil {
		checklist = []string{}
	}
	cl, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO chore_rooms (zone, weekday, room, checklist) VALUES (?, ?, ?, ?)
		 ON CONFLICT (zone, weekday) DO UPDATE SET room = excluded.room, checklist = excluded.checklist`,
		zone, weekday, room, string(cl),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert room: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+roomCols+` FROM chore_rooms WHERE zone = ? AND weekday = ?`, zone, weekday)
	return scanRoom(row)
}

func (s *RotationStore) ListRooms() ([]model.ChoreRoom, error) {
	rows, err := s.db.Query(`SELECT ` + roomCols + ` FROM chore_rooms ORDER BY zone ASC, weekday ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []model.ChoreRoom
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, *r)
	}
	return rooms, rows.Err()
}

func (s *RotationStore) DeleteRoom(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chore_rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// --- Chore completions ---

func scanChoreCompletion(scanner interface{ Scan(...any) error }) (*model.ChoreCompletion, error) {
	var c model.ChoreCompletion
	var completed int

	err := scanner.Scan(&c.ID, &c.ChildID, &c.Date, &c.Room, &completed, &c.Notes, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Completed = completed != 0
	return &c, nil
}

const choreCompletionCols = `id, child_id, date, room, completed, notes, updated_at`

// UpsertCompletion maintains the single (child, date) chore outcome row.
func (s *RotationStore) UpsertCompletion(childID int64, date, room string, completed bool, notes string) (*model.ChoreCompletion, error) {
	var done int
	if completed {
		done = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO chore_completions (child_id, date, room, completed, notes)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (child_id, date) DO UPDATE SET
		   room = excluded.room, completed = excluded.completed, notes = excluded.notes,
		   updated_at = CURRENT_TIMESTAMP`,
		childID, date, room, done, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert chore completion: %w", err)
	}
	return s.GetCompletion(childID, date)
}

func (s *RotationStore) GetCompletion(childID int64, date string) (*model.ChoreCompletion, error) {
	row := s.db.QueryRow(
		`SELECT `+choreCompletionCols+` FROM chore_completions WHERE child_id = ? AND date = ?`,
		childID, date,
	)
	c, err := scanChoreCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore completion: %w", err)
	}
	return c, nil
}
