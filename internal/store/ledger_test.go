package store

import (
	"errors"
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/database"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
)

func setupLedgerTestDB(t *testing.T) (*LedgerStore, *ChildStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLedgerStore(db), NewChildStore(db)
}

func TestAdjustMovesBalanceAndLedgerTogether(t *testing.T) {
	ls, cs := setupLedgerTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	entry, err := ls.Adjust(child.ID, 50, "helped with groceries", now)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if entry.Stars != 50 || entry.BalanceAfter != 50 {
		t.Errorf("entry = %+d/%d, want +50/50", entry.Stars, entry.BalanceAfter)
	}
	if entry.Reason != "helped with groceries" {
		t.Errorf("reason = %q", entry.Reason)
	}

	entry, err = ls.Adjust(child.ID, -20, "broke a rule", now)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if entry.Stars != -20 || entry.BalanceAfter != 30 {
		t.Errorf("entry = %+d/%d, want -20/30", entry.Stars, entry.BalanceAfter)
	}

	fresh, _ := cs.GetByID(child.ID)
	if fresh.TotalStars != 30 {
		t.Errorf("total stars = %d, want 30", fresh.TotalStars)
	}
	sum, err := ls.SumByChild(child.ID)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if sum != 30 {
		t.Errorf("ledger sum = %d, want 30", sum)
	}
}

func TestAdjustClampsDebitAtZero(t *testing.T) {
	ls, cs := setupLedgerTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ben", 8, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := ls.Adjust(child.ID, 10, "starter", now); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// Debit beyond the balance lands at zero, and the recorded delta is the
	// effective one so the ledger still sums to the balance.
	entry, err := ls.Adjust(child.ID, -25, "big penalty", now)
	if err != nil {
		t.Fatalf("overdraw debit: %v", err)
	}
	if entry.Stars != -10 || entry.BalanceAfter != 0 {
		t.Errorf("entry = %+d/%d, want -10/0", entry.Stars, entry.BalanceAfter)
	}

	fresh, _ := cs.GetByID(child.ID)
	if fresh.TotalStars != 0 {
		t.Errorf("total stars = %d, want 0", fresh.TotalStars)
	}
	sum, _ := ls.SumByChild(child.ID)
	if sum != 0 {
		t.Errorf("ledger sum = %d, want 0", sum)
	}
}

func TestAdjustUnknownChild(t *testing.T) {
	ls, _ := setupLedgerTestDB(t)
	if _, err := ls.Adjust(9999, 10, "ghost", time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("adjust unknown child: err = %v, want NotFound", err)
	}
}

func TestListByChildNewestFirst(t *testing.T) {
	ls, cs := setupLedgerTestDB(t)

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, reason := range []string{"first", "second", "third"} {
		if _, err := ls.Adjust(child.ID, 5, reason, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("adjust %q: %v", reason, err)
		}
	}

	entries, err := ls.ListByChild(child.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entry count = %d, want 3", len(entries))
	}
	if entries[0].Reason != "third" || entries[2].Reason != "first" {
		t.Errorf("order = [%q %q %q], want newest first", entries[0].Reason, entries[1].Reason, entries[2].Reason)
	}
	if entries[0].BalanceAfter != 15 {
		t.Errorf("newest balance_after = %d, want 15", entries[0].BalanceAfter)
	}
}

func TestReconcileRestoresLedgerSum(t *testing.T) {
	ls, cs := setupLedgerTestDB(t)
	now := time.Now()

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := ls.Adjust(child.ID, 40, "chores", now); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// In agreement: no correction.
	balance, fixed, err := ls.Reconcile(child.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if fixed {
		t.Error("expected no mismatch")
	}
	if balance != 40 {
		t.Errorf("balance = %d, want 40", balance)
	}

	// Corrupt the cached balance out-of-band; the ledger wins.
	if _, err := ls.db.Exec(`UPDATE children SET total_stars = 999 WHERE id = ?`, child.ID); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}
	balance, fixed, err = ls.Reconcile(child.ID)
	if err != nil {
		t.Fatalf("reconcile after corruption: %v", err)
	}
	if !fixed {
		t.Error("expected mismatch to be repaired")
	}
	if balance != 40 {
		t.Errorf("repaired balance = %d, want 40", balance)
	}
	fresh, _ := cs.GetByID(child.ID)
	if fresh.TotalStars != 40 {
		t.Errorf("stored balance = %d, want 40", fresh.TotalStars)
	}
}
