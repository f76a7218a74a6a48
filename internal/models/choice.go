package models

// RiskTier is the qualitative danger level attached to a choice.
// Tiers are strictly ordered: Low < Medium < High < Critical.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (t RiskTier) String() string {
	switch t {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	}
	return "unknown"
}

// DisplayName returns the Vietnamese label used by the generator grammar.
func (t RiskTier) DisplayName() string {
	switch t {
	case RiskLow:
		return "Thấp"
	case RiskMedium:
		return "Trung Bình"
	case RiskHigh:
		return "Cao"
	case RiskCritical:
		return "Cực Cao"
	}
	return ""
}

// ReducedBy moves the tier down by n positions, floored at RiskLow.
// It never wraps and never goes negative.
func (t RiskTier) ReducedBy(n int) RiskTier {
	if n <= 0 {
		return t
	}
	r := int(t) - n
	if r < int(RiskLow) {
		return RiskLow
	}
	return RiskTier(r)
}

// QuestLink associates a choice with the first incomplete objective of an
// active quest.
type QuestLink struct {
	QuestTitle           string `json:"quest_title"`
	ObjectiveID          string `json:"objective_id"`
	ObjectiveDescription string `json:"objective_description"`
}

// ChoiceRecord is the fully annotated form of one generated choice.
// Immutable once produced by the adjustment pipeline: OriginalSuccessRate and
// OriginalRiskTier always keep the pre-modifier baseline, modifiers only
// touch the working copies.
type ChoiceRecord struct {
	Content             string     `json:"content"`
	TimeEstimate        string     `json:"time_estimate,omitempty"`
	SuccessRate         int        `json:"success_rate"`
	OriginalSuccessRate int        `json:"original_success_rate"`
	RiskTier            RiskTier   `json:"risk_tier"`
	OriginalRiskTier    RiskTier   `json:"original_risk_tier"`
	RiskDescription     string     `json:"risk_description,omitempty"`
	RewardText          string     `json:"reward_text"`
	IsNSFW              bool       `json:"is_nsfw"`
	Category            string     `json:"category,omitempty"`
	QuestLink           *QuestLink `json:"quest_link,omitempty"`
	SupportIndicator    string     `json:"support_indicator,omitempty"`
	SupportTooltip      string     `json:"support_tooltip,omitempty"`
	IsSkillBoosted      bool       `json:"is_skill_boosted"`
	SkillName           string     `json:"skill_name,omitempty"`
}
