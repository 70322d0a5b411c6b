package model

import "time"

// DailyExpectation holds the four habit flags gating screen-time unlock.
// One row per child per date; Date is a calendar day in "2006-01-02" form.
type DailyExpectation struct {
	ID         int64     `json:"id"`
	ChildID    int64     `json:"child_id"`
	Date       string    `json:"date"`
	Exercise   bool      `json:"exercise"`
	Reading    bool      `json:"reading"`
	TidyUp     bool      `json:"tidy_up"`
	DailyChore bool      `json:"daily_chore"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ScreenTimeSession is one child's screen-time budget for one calendar day.
// Bonus minutes are day-scoped and never carry to the next date. Gig-derived
// and parent-granted minutes are tracked separately; only the former is
// recomputed when approvals change.
type ScreenTimeSession struct {
	ID                 int64      `json:"id"`
	ChildID            int64      `json:"child_id"`
	Date               string     `json:"date"`
	BaseMinutes        int        `json:"base_minutes"`
	BonusMinutes       int        `json:"bonus_minutes"`
	ParentBonusMinutes int        `json:"parent_bonus_minutes"`
	TotalMinutes       int        `json:"total_minutes"`
	MinutesUsed        int        `json:"minutes_used"`
	Weekend            bool       `json:"weekend"`
	UnlockedAt         *time.Time `json:"unlocked_at,omitempty"`
	LockedAt           *time.Time `json:"locked_at,omitempty"`
}
