package model

import "time"

type Child struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Age                  int       `json:"age"`
	TotalStars           int       `json:"total_stars"`
	MaxGigTier           int       `json:"max_gig_tier"`
	WeekdayScreenMinutes int       `json:"weekday_screen_minutes"`
	WeekendScreenMinutes int       `json:"weekend_screen_minutes"`
	WeekdayCutoff        string    `json:"weekday_cutoff"`
	WeekendCutoff        string    `json:"weekend_cutoff"`
	HasPIN               bool      `json:"has_pin"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
