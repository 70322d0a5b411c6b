package timeout

import (
	"fmt"
	"time"

	"github.com/balexbrownii/vck-household-manager-sub001/internal/domain"
	"github.com/balexbrownii/vck-household-manager-sub001/internal/model"
)

// Rules is an immutable violation table injected at construction. Lookups
// never fall back to a default: an unknown kind is the caller's mistake.
type Rules struct {
	byKind map[string]model.ViolationRule
}

// NewRules builds a rule table from the given rules.
func NewRules(rules []model.ViolationRule) Rules {
	m := make(map[string]model.ViolationRule, len(rules))
	for _, r := range rules {
		m[r.Kind] = r
	}
	return Rules{byKind: m}
}

// DefaultRules returns the standard household violation table.
func DefaultRules() Rules {
	return NewRules([]model.ViolationRule{
		{Kind: "disrespect", Minutes: 10, Category: "attitude"},
		{Kind: "backtalk", Minutes: 5, Category: "attitude"},
		{Kind: "hitting", Minutes: 20, Category: "physical"},
		{Kind: "roughhousing", Minutes: 10, Category: "physical"},
		{Kind: "lying", Minutes: 15, Category: "honesty"},
		{Kind: "ignoring_instructions", Minutes: 10, Category: "obedience"},
		{Kind: "screen_sneaking", Minutes: 15, Category: "obedience"},
		{Kind: "refusal_to_serve", Minutes: 10, Category: "obedience"},
	})
}

// Lookup resolves a violation kind to its rule.
func (r Rules) Lookup(kind string) (model.ViolationRule, error) {
	rule, ok := r.byKind[kind]
	if !ok {
		return model.ViolationRule{}, fmt.Errorf("%w: unknown violation kind %q", domain.ErrInvalidArgument, kind)
	}
	return rule, nil
}

// Kinds returns every known violation kind.
func (r Rules) Kinds() []string {
	kinds := make([]string, 0, len(r.byKind))
	for k := range r.byKind {
		kinds = append(kinds, k)
	}
	return kinds
}

// ActualDuration computes the minutes owed for a timeout. Each reset re-bases
// the requirement to the original base times the incremented count; doubling
// is fixed at creation and multiplies the whole reset-adjusted total.
func ActualDuration(baseMinutes, resetCount int, doubled bool) int {
	d := baseMinutes * (resetCount + 1)
	if doubled {
		d *= 2
	}
	return d
}

// Remaining reports how many whole minutes of the owed duration are left,
// given when serving started. Returns the full duration if serving has not
// started, and 0 once the clock has run out.
func Remaining(rec model.TimeoutRecord, now time.Time) int {
	owed := ActualDuration(rec.BaseMinutes, rec.ResetCount, rec.Doubled)
	if rec.ServingStarted == nil {
		return owed
	}
	elapsed := int(now.Sub(*rec.ServingStarted) / time.Minute)
	if elapsed >= owed {
		return 0
	}
	return owed - elapsed
}
