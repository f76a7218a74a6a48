package parser

import (
	"strings"

	"saga-server/internal/models"
)

// Inference defaults. The three-way policy is fixed: optimistic for easy
// content, pessimistic for dangerous content, moderate otherwise.
const (
	successRateEasy      = 85
	successRateDangerous = 45
	successRateDefault   = 70

	// DefaultRewardText is the placeholder when the generator stated no reward.
	DefaultRewardText = "Kinh nghiệm và cơ duyên"
)

// Keyword classes are a closed list; extending them is allowed as long as
// the three-way default policy above is preserved.
var (
	easyKeywords      = []string{"dễ dàng", "đơn giản", "an toàn", "nhẹ nhàng", "easy", "safe"}
	dangerousKeywords = []string{"nguy hiểm", "mạo hiểm", "liều lĩnh", "khó khăn", "sinh tử", "dangerous", "risky"}
)

// Infer fills every field Extract left absent, guaranteeing a usable success
// rate and risk tier for all downstream consumers. Parse gaps are recovered
// here and never surfaced.
func Infer(f Fields) Fields {
	content := strings.ToLower(f.Content)

	if f.SuccessRate == nil {
		rate := successRateDefault
		switch {
		case containsAny(content, easyKeywords):
			rate = successRateEasy
		case containsAny(content, dangerousKeywords):
			rate = successRateDangerous
		}
		f.SuccessRate = &rate
	}

	if f.RiskTier == nil {
		tier := models.RiskMedium
		switch {
		case containsAny(content, easyKeywords):
			tier = models.RiskLow
		case containsAny(content, dangerousKeywords):
			tier = models.RiskHigh
		}
		f.RiskTier = &tier
	}

	if f.RewardText == "" {
		f.RewardText = DefaultRewardText
	}

	return f
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
