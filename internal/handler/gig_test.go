package handler

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/database"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
)

func setupGigHandler(t *testing.T) (*GigHandler, *store.GigStore, *store.ChildStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gs := store.NewGigStore(db)
	cs := store.NewChildStore(db)
	ls := store.NewLedgerStore(db)
	ss := store.NewScreenTimeStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	act := activity.NewLogger(store.NewActivityStore(db), logger)
	return NewGigHandler(gs, cs, ls, ss, act, nil, logger), gs, cs
}

func TestRejectRequiresInspector(t *testing.T) {
	h, gs, cs := setupGigHandler(t)

	child, err := cs.Create("Ada", 10, 60, 120)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	gig, err := gs.Create("Wash car", 1, 30, nil, true, false, "")
	if err != nil {
		t.Fatalf("create gig: %v", err)
	}
	claim, err := gs.Claim(gig.ID, child.ID, time.Now())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	// A blank inspector is refused, matching the approval path.
	for _, body := range []string{`{}`, `{"inspector":"  "}`} {
		req := httptest.NewRequest("POST", "/api/claims/1/reject", strings.NewReader(body))
		req.SetPathValue("id", strconv.FormatInt(claim.ID, 10))
		rec := httptest.NewRecorder()
		h.Reject(rec, req)
		if rec.Code != 400 {
			t.Errorf("reject with body %s: status = %d, want 400", body, rec.Code)
		}
	}

	// The claim is untouched by the refused requests.
	got, err := gs.GetClaimByID(claim.ID)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if got.Status != model.ClaimPending {
		t.Fatalf("claim status = %q after refused rejects, want pending", got.Status)
	}

	req := httptest.NewRequest("POST", "/api/claims/1/reject", strings.NewReader(`{"inspector":"Mom"}`))
	req.SetPathValue("id", strconv.FormatInt(claim.ID, 10))
	rec := httptest.NewRecorder()
	h.Reject(rec, req)
	if rec.Code != 200 {
		t.Fatalf("reject: status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	got, err = gs.GetClaimByID(claim.ID)
	if err != nil {
		t.Fatalf("get claim: %v", err)
	}
	if got.Status != model.ClaimRejected || got.Inspector != "Mom" {
		t.Errorf("claim = %q by %q, want rejected by Mom", got.Status, got.Inspector)
	}
}
