package screentime

import (
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

const (
	bonusPerGig  = 15
	maxBonusGigs = 2
)

// Allowance is a day's screen-time budget.
type Allowance struct {
	Base  int `json:"base"`
	Bonus int `json:"bonus"`
	Total int `json:"total"`
}

// Eligible reports whether screen time may unlock for the day. All four
// daily expectations must hold; entitlement is all-or-nothing.
func Eligible(exp model.DailyExpectation) bool {
	return exp.Exercise && exp.Reading && exp.TidyUp && exp.DailyChore
}

// ComputeAllowance derives a day's budget from the child's base minutes and
// the number of gigs approved that day. Bonus caps at two gigs.
func ComputeAllowance(child model.Child, weekend bool, approvedGigsToday int) Allowance {
	base := child.WeekdayScreenMinutes
	if weekend {
		base = child.WeekendScreenMinutes
	}
	n := approvedGigsToday
	if n > maxBonusGigs {
		n = maxBonusGigs
	}
	bonus := n * bonusPerGig
	return Allowance{Base: base, Bonus: bonus, Total: base + bonus}
}

// IsWeekend reports whether the instant falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DateKey formats an instant as the calendar-day key sessions and
// expectations are stored under.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
