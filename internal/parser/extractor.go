// Package parser turns raw generator choice text into structured fields.
//
// The upstream generator emits free text following a fixed Vietnamese
// grammar (sentinel-delimited category, phrase templates for time, success
// rate, risk and reward, a quest reference template). Extraction is ordered
// and destructive: every matched span is stripped from a working copy of the
// text so later patterns only see the remainder. Reordering the steps
// changes what later patterns match.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"saga-server/internal/models"
)

// CategorySentinel delimits the leading category tag on both sides.
const CategorySentinel = "✦"

// NSFWMarker is the fixed adult-content token of the wire grammar.
const NSFWMarker = "[NSFW]"

// Fields is the partially extracted record of one choice. Pointer fields
// distinguish "absent" from zero values; the Inferencer fills the gaps.
type Fields struct {
	Content         string
	Category        string
	TimeEstimate    string
	SuccessRate     *int
	RiskTier        *models.RiskTier
	RiskDescription string
	RewardText      string
	IsNSFW          bool
	QuestLink       *models.QuestLink
}

var (
	categoryRe = regexp.MustCompile(`^\s*✦([^✦]+)✦`)
	// A parenthesized time expression is only recognized when it contains a
	// number followed by one of the fixed unit words.
	timeRe    = regexp.MustCompile(`\(\s*(\d+\s*(?:phút|canh giờ|giờ|ngày|tuần|tháng|năm)[^)]*)\)`)
	successRe = regexp.MustCompile(`(?i)Tỷ lệ thành công:\s*(\d{1,3})\s*%`)
	riskRe    = regexp.MustCompile(`(?i)Rủi ro:\s*([^\n]+)`)
	rewardRe  = regexp.MustCompile(`(?i)Phần thưởng:\s*([^\n]+)`)
	questRe   = regexp.MustCompile(`(?i)Nhiệm vụ:\s*([^\n.;)]+)`)

	ordinalRe    = regexp.MustCompile(`^\s*\d+\s*[.)]\s*`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// riskTierWords maps tier keywords to tiers. More specific words come first:
// "cực cao" contains "cao", so Critical must be checked before High or every
// critical risk would be misread as High.
var riskTierWords = []struct {
	word string
	tier models.RiskTier
}{
	{"cực cao", models.RiskCritical},
	{"cực kỳ", models.RiskCritical},
	{"nghiêm trọng", models.RiskCritical},
	{"critical", models.RiskCritical},
	{"cao", models.RiskHigh},
	{"high", models.RiskHigh},
	{"trung bình", models.RiskMedium},
	{"medium", models.RiskMedium},
	{"thấp", models.RiskLow},
	{"low", models.RiskLow},
}

// Extract parses one raw choice string. quests is the caller's active-quest
// list, consulted read-only to resolve a quest reference; an unresolvable
// reference is dropped silently but its text is still stripped. Extract is
// pure: identical input always yields identical output.
func Extract(raw string, quests []models.Quest) Fields {
	var f Fields
	working := raw

	// 1. Leading category tag.
	if m := categoryRe.FindStringSubmatch(working); m != nil {
		f.Category = strings.TrimSpace(m[1])
		working = strings.Replace(working, m[0], " ", 1)
	}

	// 2. NSFW marker.
	if strings.Contains(working, NSFWMarker) {
		f.IsNSFW = true
		working = strings.Replace(working, NSFWMarker, " ", 1)
	}

	// 3. Parenthesized time expression.
	if m := timeRe.FindStringSubmatch(working); m != nil {
		f.TimeEstimate = strings.TrimSpace(m[1])
		working = strings.Replace(working, m[0], " ", 1)
	}

	// 4. Success-rate statement.
	if m := successRe.FindStringSubmatch(working); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= 100 {
			f.SuccessRate = &n
		}
		working = strings.Replace(working, m[0], " ", 1)
	}

	// 5. Risk statement: tier word, optionally followed by a free-text
	// description after a comma.
	if m := riskRe.FindStringSubmatch(working); m != nil {
		tierPart := m[1]
		if idx := strings.Index(tierPart, ","); idx >= 0 {
			f.RiskDescription = strings.TrimSpace(tierPart[idx+1:])
			tierPart = tierPart[:idx]
		}
		if tier, ok := matchRiskTier(tierPart); ok {
			f.RiskTier = &tier
		}
		working = strings.Replace(working, m[0], " ", 1)
	}

	// 6. Reward statement (remainder of line).
	if m := rewardRe.FindStringSubmatch(working); m != nil {
		f.RewardText = strings.TrimSpace(m[1])
		working = strings.Replace(working, m[0], " ", 1)
	}

	// 7. Quest-objective reference.
	if m := questRe.FindStringSubmatch(working); m != nil {
		f.QuestLink = resolveQuestLink(strings.TrimSpace(m[1]), quests)
		working = strings.Replace(working, m[0], " ", 1)
	}

	f.Content = normalizeContent(working)
	return f
}

// matchRiskTier resolves a tier word by substring containment, most specific
// first.
func matchRiskTier(s string) (models.RiskTier, bool) {
	l := strings.ToLower(s)
	for _, w := range riskTierWords {
		if strings.Contains(l, w.word) {
			return w.tier, true
		}
	}
	return 0, false
}

// resolveQuestLink matches the referenced title against the active-quest
// list (exact title, status active) and selects the first incomplete
// objective. Returns nil when nothing usable matches.
func resolveQuestLink(title string, quests []models.Quest) *models.QuestLink {
	for i := range quests {
		q := &quests[i]
		if q.Status != models.QuestStatusActive || q.Title != title {
			continue
		}
		obj := q.FirstIncompleteObjective()
		if obj == nil {
			return nil
		}
		return &models.QuestLink{
			QuestTitle:           q.Title,
			ObjectiveID:          obj.ID.String(),
			ObjectiveDescription: obj.Description,
		}
	}
	return nil
}

// normalizeContent strips leading ordinal numbering, collapses line breaks
// and whitespace runs to single spaces, and trims the result.
func normalizeContent(s string) string {
	s = ordinalRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
