package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/activity"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/ai"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/handler"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/middleware"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/store"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/timeout"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/verify"
	ws "github.com/balexbrownii/vck-household-manager-sub001/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	childH      *handler.ChildHandler
	timeoutH    *handler.TimeoutHandler
	screenTimeH *handler.ScreenTimeHandler
	rotationH   *handler.RotationHandler
	gigH        *handler.GigHandler
	submissionH *handler.SubmissionHandler
	activityH   *handler.ActivityHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires stores, the verification pipeline, and handlers. A nil evaluator
// disables AI review; submissions then go straight to the human queue.
func New(db *sql.DB, evaluator ai.Evaluator, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	childStore := store.NewChildStore(db)
	timeoutStore := store.NewTimeoutStore(db)
	screenTimeStore := store.NewScreenTimeStore(db)
	rotationStore := store.NewRotationStore(db)
	gigStore := store.NewGigStore(db)
	ledgerStore := store.NewLedgerStore(db)
	submissionStore := store.NewSubmissionStore(db)
	activityStore := store.NewActivityStore(db)

	act := activity.NewLogger(activityStore, logger.With("component", "activity"))
	rules := timeout.DefaultRules()
	pipeline := verify.NewPipeline(submissionStore, evaluator, logger.With("component", "verify"))

	return &Server{
		db:          db,
		hub:         hub,
		childH:      handler.NewChildHandler(childStore, act, hub, logger.With("component", "child")),
		timeoutH:    handler.NewTimeoutHandler(timeoutStore, childStore, rules, act, hub, logger.With("component", "timeout")),
		screenTimeH: handler.NewScreenTimeHandler(screenTimeStore, childStore, gigStore, act, hub, logger.With("component", "screen_time")),
		rotationH:   handler.NewRotationHandler(rotationStore, childStore, act, hub, logger.With("component", "rotation")),
		gigH:        handler.NewGigHandler(gigStore, childStore, ledgerStore, screenTimeStore, act, hub, logger.With("component", "gig")),
		submissionH: handler.NewSubmissionHandler(pipeline, submissionStore, gigStore, hub, logger.With("component", "submission")),
		activityH:   handler.NewActivityHandler(act, logger.With("component", "activity_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "ws_handler")))

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("PUT /api/children/{id}/tier", s.childH.UpdateTier)
	mux.HandleFunc("PUT /api/children/{id}/screen-time-settings", s.childH.UpdateScreenTime)

	// Parent-override PINs. Verification is rate limited to slow guessing.
	mux.HandleFunc("POST /api/children/{id}/pin", s.childH.SetPIN)
	mux.HandleFunc("DELETE /api/children/{id}/pin", s.childH.ClearPIN)
	mux.HandleFunc("POST /api/children/{id}/pin/verify", s.rateLimitedHandler(s.childH.VerifyPIN))

	// Timeouts
	mux.HandleFunc("GET /api/timeouts/kinds", s.timeoutH.Kinds)
	mux.HandleFunc("POST /api/children/{id}/timeouts", s.timeoutH.Log)
	mux.HandleFunc("GET /api/children/{id}/timeouts", s.timeoutH.History)
	mux.HandleFunc("GET /api/children/{id}/timeouts/current", s.timeoutH.Current)
	mux.HandleFunc("POST /api/timeouts/{id}/reset", s.timeoutH.Reset)
	mux.HandleFunc("POST /api/timeouts/{id}/serve", s.timeoutH.StartServing)
	mux.HandleFunc("POST /api/timeouts/{id}/served", s.timeoutH.MarkServed)
	mux.HandleFunc("POST /api/timeouts/{id}/complete", s.timeoutH.Complete)
	mux.HandleFunc("POST /api/timeouts/{id}/dismiss", s.timeoutH.Dismiss)

	// Screen time
	mux.HandleFunc("PUT /api/children/{id}/expectations", s.screenTimeH.UpsertExpectation)
	mux.HandleFunc("GET /api/children/{id}/screen-time", s.screenTimeH.Status)
	mux.HandleFunc("POST /api/children/{id}/screen-time/unlock", s.screenTimeH.Unlock)
	mux.HandleFunc("POST /api/children/{id}/screen-time/lock", s.screenTimeH.Lock)
	mux.HandleFunc("POST /api/children/{id}/screen-time/usage", s.screenTimeH.AddUsage)
	mux.HandleFunc("POST /api/children/{id}/screen-time/bonus", s.screenTimeH.ParentBonus)

	// Chore rotation
	mux.HandleFunc("GET /api/rotation", s.rotationH.State)
	mux.HandleFunc("POST /api/rotation/rotate", s.rotationH.Rotate)
	mux.HandleFunc("GET /api/rotation/assignments", s.rotationH.ListAssignments)
	mux.HandleFunc("PUT /api/children/{id}/assignment", s.rotationH.UpsertAssignment)
	mux.HandleFunc("GET /api/rotation/rooms", s.rotationH.ListRooms)
	mux.HandleFunc("PUT /api/rotation/rooms", s.rotationH.UpsertRoom)
	mux.HandleFunc("DELETE /api/rotation/rooms/{id}", s.rotationH.DeleteRoom)
	mux.HandleFunc("GET /api/children/{id}/chore/today", s.rotationH.TodayChore)
	mux.HandleFunc("POST /api/children/{id}/chore/completion", s.rotationH.RecordCompletion)

	// Gig catalog and claims
	mux.HandleFunc("GET /api/gigs", s.gigH.List)
	mux.HandleFunc("POST /api/gigs", s.gigH.Create)
	mux.HandleFunc("PUT /api/gigs/{id}", s.gigH.Update)
	mux.HandleFunc("DELETE /api/gigs/{id}", s.gigH.Delete)
	mux.HandleFunc("GET /api/children/{id}/gigs/claimable", s.gigH.Claimable)
	mux.HandleFunc("POST /api/gigs/{id}/claim", s.gigH.Claim)
	mux.HandleFunc("POST /api/claims/{id}/approve", s.gigH.Approve)
	mux.HandleFunc("POST /api/claims/{id}/reject", s.gigH.Reject)
	mux.HandleFunc("GET /api/children/{id}/claims", s.gigH.ClaimsByChild)

	// Star ledger
	mux.HandleFunc("GET /api/children/{id}/stars", s.gigH.StarHistory)
	mux.HandleFunc("POST /api/children/{id}/stars/adjust", s.gigH.AdjustStars)
	mux.HandleFunc("GET /api/children/{id}/stars/milestone", s.gigH.MilestoneProgress)
	mux.HandleFunc("POST /api/children/{id}/stars/reconcile", s.gigH.ReconcileStars)

	// Verification pipeline
	mux.HandleFunc("POST /api/submissions", s.submissionH.Submit)
	mux.HandleFunc("GET /api/submissions/queue", s.submissionH.Queue)
	mux.HandleFunc("POST /api/submissions/{id}/resubmit", s.submissionH.Resubmit)
	mux.HandleFunc("POST /api/submissions/{id}/ai-review", s.submissionH.RunAIReview)
	mux.HandleFunc("POST /api/submissions/{id}/escalate", s.submissionH.Escalate)
	mux.HandleFunc("POST /api/submissions/{id}/review", s.submissionH.Review)
	mux.HandleFunc("GET /api/submissions/{id}/chain", s.submissionH.Chain)

	// Activity feed
	mux.HandleFunc("GET /api/activity", s.activityH.Recent)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
