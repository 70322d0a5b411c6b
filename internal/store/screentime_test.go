package store

import (
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/database"
)

func setupScreenTimeTestDB(t *testing.T) (*ScreenTimeStore, *ChildStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewScreenTimeStore(db), NewChildStore(db)
}

func TestExpectationUpsert(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Nothing recorded yet.
	e, err := ss.GetExpectation(child.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("get expectation: %v", err)
	}
	if e != nil {
		t.Error("expected nil before any record")
	}

	e, err = ss.UpsertExpectation(child.ID, "2026-03-02", true, true, false, false)
	if err != nil {
		t.Fatalf("upsert expectation: %v", err)
	}
	if !e.Exercise || !e.Reading || e.TidyUp || e.DailyChore {
		t.Errorf("flags = %v/%v/%v/%v, want true/true/false/false", e.Exercise, e.Reading, e.TidyUp, e.DailyChore)
	}

	// Same (child, date) updates in place; flags can go back down.
	e, err = ss.UpsertExpectation(child.ID, "2026-03-02", true, false, true, true)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if e.Reading {
		t.Error("reading flag must be overwritable back to false")
	}
	if !e.TidyUp || !e.DailyChore {
		t.Error("expected tidy_up and daily_chore set")
	}

	// Another date is a separate row.
	other, err := ss.UpsertExpectation(child.ID, "2026-03-03", false, false, false, false)
	if err != nil {
		t.Fatalf("other date upsert: %v", err)
	}
	if other.ID == e.ID {
		t.Error("expected a distinct row per date")
	}
}

func TestUnlockSessionLazyCreate(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)
	now := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	child, err := cs.Create("Ben", 8, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	sess, err := ss.GetSession(child.ID, "2026-03-02")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != nil {
		t.Error("expected no session before unlock")
	}

	sess, err = ss.UnlockSession(child.ID, "2026-03-02", 60, 15, false, now)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if sess.BaseMinutes != 60 || sess.BonusMinutes != 15 || sess.TotalMinutes != 75 {
		t.Errorf("allowance = %d+%d=%d, want 60+15=75", sess.BaseMinutes, sess.BonusMinutes, sess.TotalMinutes)
	}
	if sess.UnlockedAt == nil {
		t.Fatal("expected unlocked_at stamped")
	}
	firstUnlock := *sess.UnlockedAt

	// Re-unlock with a bigger bonus refreshes the allowance but keeps the
	// original unlock timestamp.
	sess, err = ss.UnlockSession(child.ID, "2026-03-02", 60, 30, false, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("re-unlock: %v", err)
	}
	if sess.BonusMinutes != 30 || sess.TotalMinutes != 90 {
		t.Errorf("refreshed allowance = %d/%d, want 30/90", sess.BonusMinutes, sess.TotalMinutes)
	}
	if !sess.UnlockedAt.Equal(firstUnlock) {
		t.Errorf("unlocked_at moved from %v to %v", firstUnlock, sess.UnlockedAt)
	}
}

func TestRederiveBonusOnlyTouchesExistingSession(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// No session yet: no-op.
	sess, err := ss.RederiveBonus(child.ID, "2026-03-02", 15)
	if err != nil {
		t.Fatalf("rederive without session: %v", err)
	}
	if sess != nil {
		t.Error("rederive must not create a session")
	}

	if _, err := ss.UnlockSession(child.ID, "2026-03-02", 60, 0, false, now); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	sess, err = ss.RederiveBonus(child.ID, "2026-03-02", 30)
	if err != nil {
		t.Fatalf("rederive: %v", err)
	}
	if sess.BonusMinutes != 30 || sess.TotalMinutes != 90 {
		t.Errorf("after rederive = %d/%d, want 30/90", sess.BonusMinutes, sess.TotalMinutes)
	}
}

func TestUsageAndLock(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ben", 8, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := ss.UnlockSession(child.ID, "2026-03-07", 120, 0, true, now); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	sess, err := ss.AddUsage(child.ID, "2026-03-07", 45)
	if err != nil {
		t.Fatalf("add usage: %v", err)
	}
	if sess.MinutesUsed != 45 {
		t.Errorf("minutes used = %d, want 45", sess.MinutesUsed)
	}
	sess, err = ss.AddUsage(child.ID, "2026-03-07", 30)
	if err != nil {
		t.Fatalf("add usage: %v", err)
	}
	if sess.MinutesUsed != 75 {
		t.Errorf("minutes used = %d, want 75", sess.MinutesUsed)
	}
	if !sess.Weekend {
		t.Error("expected weekend flag to persist")
	}

	sess, err = ss.LockSession(child.ID, "2026-03-07", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if sess.LockedAt == nil {
		t.Error("expected locked_at stamped")
	}

	// Unlocking again clears the lock.
	sess, err = ss.UnlockSession(child.ID, "2026-03-07", 120, 0, true, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("re-unlock: %v", err)
	}
	if sess.LockedAt != nil {
		t.Error("re-unlock must clear locked_at")
	}
	if sess.MinutesUsed != 75 {
		t.Errorf("minutes used = %d after re-unlock, want 75 preserved", sess.MinutesUsed)
	}
}

func TestParentBonusBypassesEligibility(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Works with no prior session: creates one carrying only the extra.
	sess, err := ss.AddParentBonus(child.ID, "2026-03-02", 60, 20, false, now)
	if err != nil {
		t.Fatalf("parent bonus without session: %v", err)
	}
	if sess.ParentBonusMinutes != 20 || sess.TotalMinutes != 80 {
		t.Errorf("session = %d parent/%d total, want 20/80", sess.ParentBonusMinutes, sess.TotalMinutes)
	}
	if sess.BonusMinutes != 0 {
		t.Errorf("gig bonus = %d, want 0 untouched by parent grant", sess.BonusMinutes)
	}

	// Stacks on an existing session.
	sess, err = ss.AddParentBonus(child.ID, "2026-03-02", 60, 10, false, now)
	if err != nil {
		t.Fatalf("second parent bonus: %v", err)
	}
	if sess.ParentBonusMinutes != 30 || sess.TotalMinutes != 90 {
		t.Errorf("session = %d parent/%d total, want 30/90", sess.ParentBonusMinutes, sess.TotalMinutes)
	}
}

func TestParentBonusSurvivesGigBonusRederive(t *testing.T) {
	ss, cs := setupScreenTimeTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	if _, err := ss.AddParentBonus(child.ID, "2026-03-02", 60, 45, false, now); err != nil {
		t.Fatalf("parent bonus: %v", err)
	}

	// A gig approval later the same day refreshes only the gig-derived bonus.
	sess, err := ss.RederiveBonus(child.ID, "2026-03-02", 15)
	if err != nil {
		t.Fatalf("rederive: %v", err)
	}
	if sess.BonusMinutes != 15 {
		t.Errorf("gig bonus = %d, want 15", sess.BonusMinutes)
	}
	if sess.ParentBonusMinutes != 45 {
		t.Errorf("parent bonus = %d after rederive, want 45 preserved", sess.ParentBonusMinutes)
	}
	if sess.TotalMinutes != 60+15+45 {
		t.Errorf("total = %d, want 120", sess.TotalMinutes)
	}

	// Re-unlocking with a fresh allowance must not drop the grant either.
	sess, err = ss.UnlockSession(child.ID, "2026-03-02", 60, 30, false, now)
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if sess.ParentBonusMinutes != 45 || sess.TotalMinutes != 60+30+45 {
		t.Errorf("after re-unlock = %d parent/%d total, want 45/135", sess.ParentBonusMinutes, sess.TotalMinutes)
	}
}
