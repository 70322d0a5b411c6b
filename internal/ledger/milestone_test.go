package ledger

import "testing"

func TestMilestoneProgress(t *testing.T) {
	tests := []struct {
		total       int
		wantIndex   int
		wantPercent float64
	}{
		{0, 0, 0},
		{199, 0, 0.995},
		{200, 1, 0},
		{250, 1, 0.25},
		{400, 2, 0},
		{-5, 0, 0},
	}
	for _, tt := range tests {
		p := MilestoneProgress(tt.total)
		if p.MilestoneIndex != tt.wantIndex {
			t.Errorf("MilestoneProgress(%d).MilestoneIndex = %d, want %d", tt.total, p.MilestoneIndex, tt.wantIndex)
		}
		if p.PercentInto != tt.wantPercent {
			t.Errorf("MilestoneProgress(%d).PercentInto = %v, want %v", tt.total, p.PercentInto, tt.wantPercent)
		}
	}
}

func TestMilestonesCrossed(t *testing.T) {
	tests := []struct {
		old, new, want int
	}{
		{150, 400, 2}, // floor(150/200)=0 -> floor(400/200)=2
		{0, 500, 2},
		{150, 250, 1},
		{199, 200, 1},
		{200, 399, 0},
		{400, 150, 0}, // debits never cross
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := MilestonesCrossed(tt.old, tt.new); got != tt.want {
			t.Errorf("MilestonesCrossed(%d, %d) = %d, want %d", tt.old, tt.new, got, tt.want)
		}
	}
}
