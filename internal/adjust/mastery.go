package adjust

import "saga-server/internal/models"

// MasteryResult is the outcome of the skill mastery stage.
type MasteryResult struct {
	Rate    int
	Tier    models.RiskTier
	Boosted bool
}

// ApplyMastery applies the fixed bonus pair for tier on top of whatever the
// category support stage produced. Novice (and anything unrecognized, which
// parses as Novice) leaves the values untouched with Boosted=false; that is
// a normal outcome, never an error.
func ApplyMastery(rate int, risk models.RiskTier, tier models.MasteryTier) MasteryResult {
	if tier <= models.MasteryNovice || tier > models.MasteryPerfection {
		return MasteryResult{Rate: rate, Tier: risk}
	}
	newRate := models.AdjustSuccessRate(rate, tier)
	newRisk := models.AdjustRiskTier(risk, tier)
	return MasteryResult{Rate: newRate, Tier: newRisk, Boosted: true}
}
