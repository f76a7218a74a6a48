package adjust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSkillName_PhrasePatterns(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Sử dụng Liệt Hỏa Kiếm Pháp để tấn công kẻ địch", "Liệt Hỏa Kiếm Pháp"},
		{"Dùng Băng Tâm Quyết để ổn định tâm cảnh", "Băng Tâm Quyết"},
		{"Vận dụng Thân Pháp Phù Vân để né tránh", "Thân Pháp Phù Vân"},
		{"Tấn công kẻ địch bằng Huyền Thiên Chưởng", "Huyền Thiên Chưởng"},
	}
	for _, tt := range tests {
		name, ok := ExtractSkillName(tt.content)
		require.True(t, ok, "content=%q", tt.content)
		assert.Equal(t, tt.want, name, "content=%q", tt.content)
	}
}

func TestExtractSkillName_SuffixFallback(t *testing.T) {
	name, ok := ExtractSkillName("Thi triển Liệt Hỏa Kiếm Pháp trước mặt trưởng lão")

	require.True(t, ok)
	assert.Equal(t, "Liệt Hỏa Kiếm Pháp", name)
}

func TestExtractSkillName_NoMatch(t *testing.T) {
	_, ok := ExtractSkillName("Quan sát tình hình xung quanh")

	assert.False(t, ok)
}

func TestExtractSkillName_EmptyContent(t *testing.T) {
	_, ok := ExtractSkillName("")

	assert.False(t, ok)
}
