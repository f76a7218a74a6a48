package models

import "strings"

// MasteryTier is the ordered proficiency level of a learned skill.
type MasteryTier int

const (
	MasteryNovice MasteryTier = iota
	MasteryIntermediate
	MasteryAdvanced
	MasteryGreatAccomplishment
	MasteryPerfection
)

func (t MasteryTier) String() string {
	switch t {
	case MasteryNovice:
		return "novice"
	case MasteryIntermediate:
		return "intermediate"
	case MasteryAdvanced:
		return "advanced"
	case MasteryGreatAccomplishment:
		return "great_accomplishment"
	case MasteryPerfection:
		return "perfection"
	}
	return "unknown"
}

// MasteryBonus is the fixed adjustment pair a mastery tier grants.
type MasteryBonus struct {
	SuccessBonus  int
	RiskReduction int
}

// masteryBonusTable is the single source of truth for mastery adjustments.
// Both the pipeline stage and the standalone helpers read from it; it is
// never mutated at runtime.
var masteryBonusTable = map[MasteryTier]MasteryBonus{
	MasteryNovice:              {SuccessBonus: 0, RiskReduction: 0},
	MasteryIntermediate:        {SuccessBonus: 5, RiskReduction: 0},
	MasteryAdvanced:            {SuccessBonus: 10, RiskReduction: 1},
	MasteryGreatAccomplishment: {SuccessBonus: 15, RiskReduction: 1},
	MasteryPerfection:          {SuccessBonus: 20, RiskReduction: 2},
}

// Bonus returns the adjustment pair for the tier. Unrecognized tiers behave
// like Novice.
func (t MasteryTier) Bonus() MasteryBonus {
	if b, ok := masteryBonusTable[t]; ok {
		return b
	}
	return MasteryBonus{}
}

// masteryTierNames maps the Vietnamese labels the entity registry records to
// tiers. Matching is case-insensitive substring containment.
var masteryTierNames = []struct {
	name string
	tier MasteryTier
}{
	{"đăng phong", MasteryPerfection},
	{"viên mãn", MasteryGreatAccomplishment},
	{"đại thành", MasteryAdvanced},
	{"tiểu thành", MasteryIntermediate},
	{"nhập môn", MasteryNovice},
}

// ParseMasteryTier resolves a recorded mastery label to a tier. Unrecognized
// labels are treated as Novice (no bonus), not as an error.
func ParseMasteryTier(label string) MasteryTier {
	l := strings.ToLower(strings.TrimSpace(label))
	for _, m := range masteryTierNames {
		if strings.Contains(l, m.name) {
			return m.tier
		}
	}
	return MasteryNovice
}

// AdjustSuccessRate applies the tier's success bonus to base, saturating at
// 100. Base values are expected in [0,100].
func AdjustSuccessRate(base int, tier MasteryTier) int {
	r := base + tier.Bonus().SuccessBonus
	if r > 100 {
		return 100
	}
	if r < 0 {
		return 0
	}
	return r
}

// AdjustRiskTier applies the tier's risk reduction to base, floored at
// RiskLow. The result is never above the input tier.
func AdjustRiskTier(base RiskTier, tier MasteryTier) RiskTier {
	return base.ReducedBy(tier.Bonus().RiskReduction)
}

// ApplyMasteryAdjustments applies both adjustments and reports whether
// anything changed.
func ApplyMasteryAdjustments(rate int, risk RiskTier, tier MasteryTier) (int, RiskTier, bool) {
	newRate := AdjustSuccessRate(rate, tier)
	newRisk := AdjustRiskTier(risk, tier)
	return newRate, newRisk, newRate != rate || newRisk != risk
}
