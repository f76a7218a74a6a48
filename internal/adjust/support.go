// Package adjust implements the two stacked outcome modifiers: the category
// support bonus carried over from the previously selected choice category,
// and the skill mastery bonus derived from a learned skill's tier.
//
// Ordering is part of the contract: support is applied to the inferred
// baseline first, mastery on top of the support result. Swapping them
// changes final values.
package adjust

import (
	"fmt"

	"saga-server/internal/models"
)

// SupportBonus is the adjustment pair a category relationship grants.
type SupportBonus struct {
	SuccessBonus  int
	RiskReduction int
}

// IsZero reports whether the bonus grants nothing.
func (b SupportBonus) IsZero() bool {
	return b.SuccessBonus == 0 && b.RiskReduction == 0
}

// SupportRule decides the bonus for offering a choice of category next after
// the player previously selected previous. The concrete rule is owned by the
// category-support collaborator and injected; the pipeline never hardcodes a
// compatibility policy.
type SupportRule interface {
	Bonus(previous, next string) SupportBonus
}

// CompatibilityRule is the table-driven SupportRule: a fixed bonus for
// repeating the previous category, plus an optional complementary-pair
// table. Both tables are configuration, immutable after construction.
type CompatibilityRule struct {
	SameCategory  SupportBonus
	Complementary map[string]map[string]SupportBonus
}

// NewDefaultSupportRule grants +5 success for following up in the same
// category and nothing else.
func NewDefaultSupportRule() *CompatibilityRule {
	return &CompatibilityRule{
		SameCategory: SupportBonus{SuccessBonus: 5},
	}
}

func (r *CompatibilityRule) Bonus(previous, next string) SupportBonus {
	if previous == "" || next == "" {
		return SupportBonus{}
	}
	if previous == next {
		return r.SameCategory
	}
	if m, ok := r.Complementary[previous]; ok {
		return m[next]
	}
	return SupportBonus{}
}

// SupportResult is the outcome of the category support stage.
type SupportResult struct {
	Rate      int
	Tier      models.RiskTier
	Indicator string
	Tooltip   string
}

// ApplySupport applies the category support bonus for category against the
// session's last selected category. Saturation matches the mastery stage:
// rate capped at 100, tier floored at Low. Indicator and tooltip are set
// only when a non-zero bonus was actually applied.
func ApplySupport(rate int, tier models.RiskTier, category, lastCategory string, rule SupportRule) SupportResult {
	res := SupportResult{Rate: rate, Tier: tier}
	if rule == nil {
		return res
	}
	bonus := rule.Bonus(lastCategory, category)
	if bonus.IsZero() {
		return res
	}

	if bonus.SuccessBonus > 0 {
		res.Rate = rate + bonus.SuccessBonus
		if res.Rate > 100 {
			res.Rate = 100
		}
	}
	res.Tier = tier.ReducedBy(bonus.RiskReduction)
	res.Indicator = "⬆"
	res.Tooltip = fmt.Sprintf("Được tiếp sức bởi hành động %s trước đó (+%d%% thành công)",
		lastCategory, bonus.SuccessBonus)
	return res
}
