package adjust

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saga-server/internal/models"
)

func TestApplyMastery_Novice(t *testing.T) {
	res := ApplyMastery(40, models.RiskHigh, models.MasteryNovice)

	assert.Equal(t, 40, res.Rate)
	assert.Equal(t, models.RiskHigh, res.Tier)
	assert.False(t, res.Boosted)
}

func TestApplyMastery_Advanced(t *testing.T) {
	res := ApplyMastery(40, models.RiskHigh, models.MasteryAdvanced)

	assert.Equal(t, 50, res.Rate)
	assert.Equal(t, models.RiskMedium, res.Tier)
	assert.True(t, res.Boosted)
}

func TestApplyMastery_PerfectionSaturates(t *testing.T) {
	res := ApplyMastery(95, models.RiskLow, models.MasteryPerfection)

	assert.Equal(t, 100, res.Rate)
	assert.Equal(t, models.RiskLow, res.Tier)
	assert.True(t, res.Boosted)
}

func TestApplyMastery_OutOfRangeTierIsNoOp(t *testing.T) {
	res := ApplyMastery(40, models.RiskHigh, models.MasteryTier(99))

	assert.Equal(t, 40, res.Rate)
	assert.Equal(t, models.RiskHigh, res.Tier)
	assert.False(t, res.Boosted)
}

// Support is applied to the baseline first, mastery stacks on the support
// result. Swapping the stages would change the final values whenever the
// support bonus pushes the rate past a saturation point.
func TestModifierOrdering_SupportThenMastery(t *testing.T) {
	rule := NewDefaultSupportRule()

	supported := ApplySupport(40, models.RiskHigh, "Chiến Đấu", "Chiến Đấu", rule)
	final := ApplyMastery(supported.Rate, supported.Tier, models.MasteryAdvanced)

	assert.Equal(t, 45, supported.Rate)
	assert.Equal(t, 55, final.Rate)
	assert.Equal(t, models.RiskMedium, final.Tier)
}
