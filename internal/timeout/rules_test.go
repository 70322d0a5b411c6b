package timeout

import (
	"errors"
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

func TestActualDuration(t *testing.T) {
	tests := []struct {
		base    int
		resets  int
		doubled bool
		want    int
	}{
		{10, 0, false, 10},
		{10, 1, false, 20},
		{10, 2, false, 30},
		{10, 0, true, 20},
		{10, 2, true, 60},
		{5, 3, false, 20},
		{0, 5, true, 0},
	}
	for _, tt := range tests {
		got := ActualDuration(tt.base, tt.resets, tt.doubled)
		if got != tt.want {
			t.Errorf("ActualDuration(%d, %d, %v) = %d, want %d", tt.base, tt.resets, tt.doubled, got, tt.want)
		}
	}
}

func TestActualDurationMonotonicInResets(t *testing.T) {
	for _, doubled := range []bool{false, true} {
		prev := -1
		for resets := 0; resets < 10; resets++ {
			d := ActualDuration(10, resets, doubled)
			if d < prev {
				t.Fatalf("duration decreased at resets=%d doubled=%v: %d < %d", resets, doubled, d, prev)
			}
			prev = d
		}
	}
}

func TestLookupKnownKind(t *testing.T) {
	rules := DefaultRules()

	rule, err := rules.Lookup("hitting")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rule.Minutes != 20 {
		t.Errorf("minutes = %d, want 20", rule.Minutes)
	}
	if rule.Category != "physical" {
		t.Errorf("category = %q, want %q", rule.Category, "physical")
	}
}

func TestLookupUnknownKind(t *testing.T) {
	rules := DefaultRules()

	_, err := rules.Lookup("jaywalking")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestInjectedRuleSet(t *testing.T) {
	rules := NewRules([]model.ViolationRule{
		{Kind: "test_kind", Minutes: 3, Category: "test"},
	})

	rule, err := rules.Lookup("test_kind")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rule.Minutes != 3 {
		t.Errorf("minutes = %d, want 3", rule.Minutes)
	}

	// Default kinds must not leak into an injected table
	if _, err := rules.Lookup("hitting"); err == nil {
		t.Error("expected unknown kind in injected table")
	}
}

func TestRemaining(t *testing.T) {
	started := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	rec := model.TimeoutRecord{
		BaseMinutes:    10,
		ResetCount:     1,
		Doubled:        false,
		ServingStarted: &started,
	}

	// 20 minutes owed; 5 elapsed
	now := started.Add(5 * time.Minute)
	if got := Remaining(rec, now); got != 15 {
		t.Errorf("remaining = %d, want 15", got)
	}

	// Clock ran out
	now = started.Add(25 * time.Minute)
	if got := Remaining(rec, now); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestRemainingNotServing(t *testing.T) {
	rec := model.TimeoutRecord{BaseMinutes: 10, ResetCount: 0, Doubled: true}
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	if got := Remaining(rec, now); got != 20 {
		t.Errorf("remaining = %d, want 20", got)
	}
}
