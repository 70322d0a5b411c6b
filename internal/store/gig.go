package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

type GigStore struct {
	db *sql.DB
}

func NewGigStore(db *sql.DB) *GigStore {
	return &GigStore{db: db}
}

// --- Gig catalog methods ---

func scanGig(scanner interface{ Scan(...any) error }) (*model.Gig, error) {
	var g model.Gig
	var checklist string
	var active, aiReview int

	err := scanner.Scan(
		&g.ID, &g.Title, &g.Tier, &g.Stars, &checklist, &active,
		&aiReview, &g.AICriteria, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Active = active != 0
	g.AIReview = aiReview != 0
	if err := json.Unmarshal([]byte(checklist), &g.Checklist); err != nil {
		g.Checklist = nil
	}
	return &g, nil
}

const gigCols = `id, title, tier, stars, checklist, active, ai_review, ai_criteria, created_at, updated_at`

func (s *GigStore) Create(title string, tier, stars int, checklist []string, active, aiReview bool, aiCriteria string) (*model.Gig, error) {
	if checklist == nil {
		checklist = []string{}
	}
	cl, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	result, err := s.db.Exec(
		`INSERT INTO gigs (title, tier, stars, checklist, active, ai_review, ai_criteria) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, tier, stars, string(cl), b(active), b(aiReview), aiCriteria,
	)
	if err != nil {
		return nil, fmt.Errorf("insert gig: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GigStore) GetByID(id int64) (*model.Gig, error) {
	row := s.db.QueryRow(`SELECT `+gigCols+` FROM gigs WHERE id = ?`, id)
	g, err := scanGig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gig: %w", err)
	}
	return g, nil
}

func (s *GigStore) List() ([]model.Gig, error) {
	rows, err := s.db.Query(`SELECT ` + gigCols + ` FROM gigs ORDER BY tier ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list gigs: %w", err)
	}
	defer rows.Close()
	return collectGigs(rows)
}

// ListClaimable returns active gigs at or below the given tier.
func (s *GigStore) ListClaimable(maxTier int) ([]model.Gig, error) {
	rows, err := s.db.Query(
		`SELECT `+gigCols+` FROM gigs WHERE active = 1 AND tier <= ? ORDER BY tier ASC, title ASC`,
		maxTier,
	)
	if err != nil {
		return nil, fmt.Errorf("list claimable gigs: %w", err)
	}
	defer rows.Close()
	return collectGigs(rows)
}

func collectGigs(rows *sql.Rows) ([]model.Gig, error) {
	var gigs []model.Gig
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gig: %w", err)
		}
		gigs = append(gigs, *g)
	}
	return gigs, rows.Err()
}

func (s *GigStore) Update(id int64, title string, tier, stars int, checklist []string, active, aiReview bool, aiCriteria string) (*model.Gig, error) {
	if checklist == nil {
		checklist = []string{}
	}
	cl, err := json.Marshal(checklist)
	if err != nil {
		return nil, fmt.Errorf("marshal checklist: %w", err)
	}
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	_, err = s.db.Exec(
		`UPDATE gigs SET title = ?, tier = ?, stars = ?, checklist = ?, active = ?, ai_review = ?, ai_criteria = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, tier, stars, string(cl), b(active), b(aiReview), aiCriteria, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update gig: %w", err)
	}
	return s.GetByID(id)
}

func (s *GigStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM gigs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gig: %w", err)
	}
	return nil
}

// --- Claim methods ---

func scanClaim(scanner interface{ Scan(...any) error }) (*model.ClaimedGig, error) {
	var c model.ClaimedGig
	var inspectedAt, completedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.GigID, &c.ChildID, &c.Status, &c.Inspector,
		&c.StarsAwarded, &c.ClaimedAt, &inspectedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if inspectedAt.Valid {
		c.InspectedAt = &inspectedAt.Time
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return &c, nil
}

const claimCols = `id, gig_id, child_id, status, inspector, stars_awarded, claimed_at, inspected_at, completed_at`

// Claim creates an open claim after checking every guard inside one
// transaction: the gig must be active, within the child's tier, and neither
// the gig nor the child may already hold an open claim. Partial unique
// indexes back the read-then-write check against races.
func (s *GigStore) Claim(gigID, childID int64, now time.Time) (*model.ClaimedGig, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var tier, active int
	err = tx.QueryRow(`SELECT tier, active FROM gigs WHERE id = ?`, gigID).Scan(&tier, &active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: gig %d", domain.ErrNotFound, gigID)
	}
	if err != nil {
		return nil, fmt.Errorf("get gig: %w", err)
	}
	if active == 0 {
		return nil, fmt.Errorf("%w: gig %d is not active", domain.ErrConflict, gigID)
	}

	var maxTier int
	err = tx.QueryRow(`SELECT max_gig_tier FROM children WHERE id = ?`, childID).Scan(&maxTier)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: child %d", domain.ErrNotFound, childID)
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if tier > maxTier {
		return nil, fmt.Errorf("%w: gig tier %d exceeds child tier %d", domain.ErrConflict, tier, maxTier)
	}

	var gigClaims int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM claimed_gigs WHERE gig_id = ? AND status = 'claimed'`, gigID).Scan(&gigClaims); err != nil {
		return nil, fmt.Errorf("count gig claims: %w", err)
	}
	if gigClaims > 0 {
		return nil, fmt.Errorf("%w: gig %d already has an open claim", domain.ErrConflict, gigID)
	}

	var childClaims int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM claimed_gigs WHERE child_id = ? AND status = 'claimed'`, childID).Scan(&childClaims); err != nil {
		return nil, fmt.Errorf("count child claims: %w", err)
	}
	if childClaims > 0 {
		return nil, fmt.Errorf("%w: child %d already holds an open claim", domain.ErrConflict, childID)
	}

	result, err := tx.Exec(
		`INSERT INTO claimed_gigs (gig_id, child_id, status, claimed_at) VALUES (?, ?, 'claimed', ?)`,
		gigID, childID, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert claim: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetClaimByID(id)
}

func (s *GigStore) GetClaimByID(id int64) (*model.ClaimedGig, error) {
	row := s.db.QueryRow(`SELECT `+claimCols+` FROM claimed_gigs WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// GetOpenClaimByChild returns the child's pending claim, or nil.
func (s *GigStore) GetOpenClaimByChild(childID int64) (*model.ClaimedGig, error) {
	row := s.db.QueryRow(
		`SELECT `+claimCols+` FROM claimed_gigs WHERE child_id = ? AND status = 'claimed'`,
		childID,
	)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open claim: %w", err)
	}
	return c, nil
}

func (s *GigStore) ListClaimsByChild(childID int64) ([]model.ClaimedGig, error) {
	rows, err := s.db.Query(
		`SELECT `+claimCols+` FROM claimed_gigs WHERE child_id = ? ORDER BY claimed_at DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []model.ClaimedGig
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}

// Approve decides an open claim: stamps inspection metadata, awards the gig's
// stars, appends the ledger row, and moves the balance in one transaction, so
// a crash can never leave the ledger and balance split.
func (s *GigStore) Approve(claimID int64, inspector string, now time.Time) (*model.ClaimedGig, *model.StarHistoryEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var childID, gigID int64
	var status string
	err = tx.QueryRow(`SELECT child_id, gig_id, status FROM claimed_gigs WHERE id = ?`, claimID).
		Scan(&childID, &gigID, &status)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("%w: claim %d", domain.ErrNotFound, claimID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get claim: %w", err)
	}
	if status != string(model.ClaimPending) {
		return nil, nil, fmt.Errorf("%w: claim %d already %s", domain.ErrConflict, claimID, status)
	}

	var stars int
	var title string
	if err := tx.QueryRow(`SELECT stars, title FROM gigs WHERE id = ?`, gigID).Scan(&stars, &title); err != nil {
		return nil, nil, fmt.Errorf("get gig stars: %w", err)
	}

	result, err := tx.Exec(
		`UPDATE claimed_gigs
		 SET status = 'approved', inspector = ?, stars_awarded = ?, inspected_at = ?, completed_at = ?
		 WHERE id = ? AND status = 'claimed'`,
		inspector, stars, now.UTC(), now.UTC(), claimID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("approve claim: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil, fmt.Errorf("%w: claim %d already decided", domain.ErrConflict, claimID)
	}

	entry, err := appendStarsTx(tx, childID, stars, fmt.Sprintf("gig approved: %s", title), now)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	claim, err := s.GetClaimByID(claimID)
	if err != nil {
		return nil, nil, err
	}
	return claim, entry, nil
}

// Reject stamps inspection metadata with no star delta. The claim leaves the
// child's hold and the gig becomes claimable again at full value; redoing
// carries no penalty.
func (s *GigStore) Reject(claimID int64, inspector string, now time.Time) (*model.ClaimedGig, error) {
	result, err := s.db.Exec(
		`UPDATE claimed_gigs SET status = 'rejected', inspector = ?, inspected_at = ? WHERE id = ? AND status = 'claimed'`,
		inspector, now.UTC(), claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("reject claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		c, err := s.GetClaimByID(claimID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("%w: claim %d", domain.ErrNotFound, claimID)
		}
		return nil, fmt.Errorf("%w: claim %d already %s", domain.ErrConflict, claimID, c.Status)
	}
	return s.GetClaimByID(claimID)
}

// ApprovedCountBetween counts the child's approved gigs completed in
// [start, end). Used to derive the day's screen-time bonus.
func (s *GigStore) ApprovedCountBetween(childID int64, start, end time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM claimed_gigs WHERE child_id = ? AND status = 'approved' AND completed_at >= ? AND completed_at < ?`,
		childID, start.UTC(), end.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count approved gigs: %w", err)
	}
	return count, nil
}
