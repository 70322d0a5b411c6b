package ledger

// MilestoneInterval is the star count between reward milestones.
const MilestoneInterval = 200

// Progress describes where a star total sits relative to milestones.
type Progress struct {
	MilestoneIndex int     `json:"milestone_index"`
	PercentInto    float64 `json:"percent_into"`
}

// MilestoneProgress computes the milestone index and fractional progress
// toward the next milestone for a star total.
func MilestoneProgress(total int) Progress {
	if total < 0 {
		total = 0
	}
	return Progress{
		MilestoneIndex: total / MilestoneInterval,
		PercentInto:    float64(total%MilestoneInterval) / MilestoneInterval,
	}
}

// MilestonesCrossed counts milestones crossed moving from oldTotal to
// newTotal. A single large award can cross more than one; a debit crosses
// none (returns 0, never negative).
func MilestonesCrossed(oldTotal, newTotal int) int {
	if oldTotal < 0 {
		oldTotal = 0
	}
	if newTotal < 0 {
		newTotal = 0
	}
	crossed := newTotal/MilestoneInterval - oldTotal/MilestoneInterval
	if crossed < 0 {
		return 0
	}
	return crossed
}
