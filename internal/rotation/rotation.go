package rotation

import (
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

// Week is one of the three rotation weeks.
type Week string

const (
	WeekA Week = "A"
	WeekB Week = "B"
	WeekC Week = "C"
)

// Valid reports whether w is one of the three rotation weeks.
func (w Week) Valid() bool {
	return w == WeekA || w == WeekB || w == WeekC
}

// ParseWeek validates a week string.
func ParseWeek(s string) (Week, error) {
	w := Week(s)
	if !w.Valid() {
		return "", fmt.Errorf("%w: rotation week must be A, B, or C, got %q", domain.ErrInvalidArgument, s)
	}
	return w, nil
}

// NextWeek advances the 3-cycle: A→B→C→A.
func NextWeek(w Week) Week {
	switch w {
	case WeekA:
		return WeekB
	case WeekB:
		return WeekC
	default:
		return WeekA
	}
}

// PreviousWeek is the inverse of NextWeek.
func PreviousWeek(w Week) Week {
	switch w {
	case WeekA:
		return WeekC
	case WeekB:
		return WeekA
	default:
		return WeekB
	}
}

// ShouldRotate reports whether the Monday-anchored ISO week containing now is
// strictly later than the one containing the last rotation. A nil last
// rotation always rotates.
func ShouldRotate(lastRotation *time.Time, now time.Time) bool {
	if lastRotation == nil {
		return true
	}
	ly, lw := lastRotation.ISOWeek()
	ny, nw := now.ISOWeek()
	if ny != ly {
		return ny > ly
	}
	return nw > lw
}

// ResolveTodayRoom finds the room for a zone on a weekday. A missing entry is
// a valid "no chore today", not an error.
func ResolveTodayRoom(zone string, weekday time.Weekday, rooms []model.ChoreRoom) *model.ChoreRoom {
	for i := range rooms {
		if rooms[i].Zone == zone && rooms[i].Weekday == int(weekday) {
			return &rooms[i]
		}
	}
	return nil
}
