package screentime

import (
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

func TestEligibleAllOrNothing(t *testing.T) {
	full := model.DailyExpectation{Exercise: true, Reading: true, TidyUp: true, DailyChore: true}
	if !Eligible(full) {
		t.Error("all four true should be eligible")
	}

	// Any three of four is not enough, regardless of which is missing
	partials := []model.DailyExpectation{
		{Reading: true, TidyUp: true, DailyChore: true},
		{Exercise: true, TidyUp: true, DailyChore: true},
		{Exercise: true, Reading: true, DailyChore: true},
		{Exercise: true, Reading: true, TidyUp: true},
	}
	for i, exp := range partials {
		if Eligible(exp) {
			t.Errorf("partial %d should not be eligible", i)
		}
	}

	if Eligible(model.DailyExpectation{}) {
		t.Error("empty expectations should not be eligible")
	}
}

func TestComputeAllowance(t *testing.T) {
	child := model.Child{WeekdayScreenMinutes: 60, WeekendScreenMinutes: 120}

	tests := []struct {
		weekend   bool
		gigs      int
		wantBase  int
		wantBonus int
	}{
		{false, 0, 60, 0},
		{false, 1, 60, 15},
		{false, 2, 60, 30},
		{false, 5, 60, 30}, // cap at two gigs, not 75
		{true, 0, 120, 0},
		{true, 2, 120, 30},
	}
	for _, tt := range tests {
		a := ComputeAllowance(child, tt.weekend, tt.gigs)
		if a.Base != tt.wantBase {
			t.Errorf("weekend=%v gigs=%d: base = %d, want %d", tt.weekend, tt.gigs, a.Base, tt.wantBase)
		}
		if a.Bonus != tt.wantBonus {
			t.Errorf("weekend=%v gigs=%d: bonus = %d, want %d", tt.weekend, tt.gigs, a.Bonus, tt.wantBonus)
		}
		if a.Total != tt.wantBase+tt.wantBonus {
			t.Errorf("weekend=%v gigs=%d: total = %d, want %d", tt.weekend, tt.gigs, a.Total, tt.wantBase+tt.wantBonus)
		}
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

	if !IsWeekend(sat) || !IsWeekend(sun) {
		t.Error("Saturday and Sunday should be weekend")
	}
	if IsWeekend(mon) {
		t.Error("Monday should not be weekend")
	}
}

func TestDateKey(t *testing.T) {
	d := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := DateKey(d); got != "2026-03-07" {
		t.Errorf("date key = %q, want %q", got, "2026-03-07")
	}
}
