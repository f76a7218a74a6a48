package adjust

import (
	"regexp"
	"strings"
)

// Skill-name extraction is best-effort natural-language matching, not a
// grammar. Patterns are tried strictly in order; the first hit wins. Failure
// to extract a name means "no bonus", never an error.
var skillPhrasePatterns = []*regexp.Regexp{
	// "sử dụng <skill> để ..." (using X to)
	regexp.MustCompile(`(?i)sử dụng\s+(.{2,40}?)\s+để\s`),
	// "dùng <skill> để ..."
	regexp.MustCompile(`(?i)dùng\s+(.{2,40}?)\s+để\s`),
	// "vận dụng <skill> nhằm/để ..." (X in order to)
	regexp.MustCompile(`(?i)vận dụng\s+(.{2,40}?)\s+(?:nhằm|để)\s`),
	// "bằng <skill>" / "với <skill>" (with X), up to end of clause
	regexp.MustCompile(`(?i)bằng\s+([^,.;\n]{2,40})`),
	regexp.MustCompile(`(?i)với\s+([^,.;\n]{2,40})`),
}

// skillSuffixFallback matches capitalized multi-word phrases ending in a
// known skill-name suffix, e.g. "Liệt Hỏa Kiếm Pháp" or "Huyền Thiên Chưởng".
var skillSuffixFallback = regexp.MustCompile(
	`(?:\p{Lu}\p{Ll}*\s+){1,4}(?:Pháp|Quyền|Chưởng|Công|Thuật|Quyết|Kiếm|Đao|Cước)\b`)

// ExtractSkillName pulls a probable skill name out of choice content.
// Returns ok=false when no pattern matches confidently.
func ExtractSkillName(content string) (string, bool) {
	for _, re := range skillPhrasePatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			name := strings.TrimSpace(m[1])
			if name != "" {
				return name, true
			}
		}
	}
	if m := skillSuffixFallback.FindString(content); m != "" {
		return strings.TrimSpace(m), true
	}
	return "", false
}
