package store

import (
	"database/sql"
	"fmt"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	var pinHash string

	err := scanner.Scan(
		&c.ID, &c.Name, &c.Age, &c.TotalStars, &c.MaxGigTier,
		&c.WeekdayScreenMinutes, &c.WeekendScreenMinutes,
		&c.WeekdayCutoff, &c.WeekendCutoff, &pinHash,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.HasPIN = pinHash != ""
	return &c, nil
}

const childCols = `id, name, age, total_stars, max_gig_tier, weekday_screen_minutes, weekend_screen_minutes, weekday_cutoff, weekend_cutoff, pin_hash, created_at, updated_at`

func (s *ChildStore) Create(name string, age, weekdayMinutes, weekendMinutes int) (*model.Child, error) {
	result, err := s.db.Exec(
		`INSERT INTO children (name, age, weekday_screen_minutes, weekend_screen_minutes) VALUES (?, ?, ?, ?)`,
		name, age, weekdayMinutes, weekendMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) GetByID(id int64) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ?`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) List() ([]model.Child, error) {
	rows, err := s.db.Query(`SELECT ` + childCols + ` FROM children ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id int64, name string, age int) (*model.Child, error) {
	_, err := s.db.Exec(
		`UPDATE children SET name = ?, age = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, age, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return s.GetByID(id)
}

// UpdateTier sets the highest gig tier the child may claim.
func (s *ChildStore) UpdateTier(id int64, tier int) (*model.Child, error) {
	_, err := s.db.Exec(
		`UPDATE children SET max_gig_tier = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tier, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update tier: %w", err)
	}
	return s.GetByID(id)
}

// UpdateScreenTime sets base minutes and cutoff times.
func (s *ChildStore) UpdateScreenTime(id int64, weekdayMinutes, weekendMinutes int, weekdayCutoff, weekendCutoff string) (*model.Child, error) {
	_, err := s.db.Exec(
		`UPDATE children SET weekday_screen_minutes = ?, weekend_screen_minutes = ?, weekday_cutoff = ?, weekend_cutoff = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		weekdayMinutes, weekendMinutes, weekdayCutoff, weekendCutoff, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update screen time: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChildStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM children WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}

// SetPIN stores a bcrypt hash for the child's parent-override PIN. An empty
// hash clears the PIN.
func (s *ChildStore) SetPIN(id int64, hash string) error {
	_, err := s.db.Exec(`UPDATE children SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *ChildStore) GetPINHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT pin_hash FROM children WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash, nil
}
