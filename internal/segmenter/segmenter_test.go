package segmenter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

func bodyBlock(text string) types.TextBlock {
	return types.TextBlock{Text: text}
}

func headerBlock(text string) types.TextBlock {
	return types.TextBlock{
		Text:  text,
		Style: types.TextStyle{FontSizeBucket: types.FontSizeSubhead, IsBold: true},
	}
}

// assertCoverage 校验覆盖不变量：章节互不重叠且并集覆盖整个块序列
func assertCoverage(t *testing.T, blocks []types.TextBlock, sections []types.Section) {
	t.Helper()
	next := 0
	for _, sec := range sections {
		require.Equal(t, next, sec.Start, "章节之间不允许有缝隙或重叠")
		require.Greater(t, sec.End, sec.Start)
		require.Len(t, sec.Blocks, sec.End-sec.Start)
		next = sec.End
	}
	require.Equal(t, len(blocks), next, "章节并集必须覆盖全部文本块")
}

func TestSegmentTypicalResume(t *testing.T) {
	blocks := []types.TextBlock{
		{Text: "JOHN DOE", Style: types.TextStyle{FontSizeBucket: types.FontSizeHeadline, IsBold: true}},
		bodyBlock("jdoe@x.com | +1 5551234567"),
		headerBlock("EXPERIENCE"),
		bodyBlock("Software Engineer  Jan 2020 - Present"),
		bodyBlock("Acme Corp, Springfield"),
		headerBlock("EDUCATION"),
		bodyBlock("B.Tech in Computer Science, State University, 2016 - 2020"),
		headerBlock("TECHNICAL SKILLS"),
		bodyBlock("Languages: Go, Python, SQL"),
	}

	sections := New().Segment(blocks)
	assertCoverage(t, blocks, sections)
	require.Len(t, sections, 4)

	// 首个标题之前的文档头归OTHER
	assert.Equal(t, types.SectionOther, sections[0].Kind)
	assert.Equal(t, 2, sections[0].End)

	assert.Equal(t, types.SectionExperience, sections[1].Kind)
	assert.Equal(t, "EXPERIENCE", sections[1].Title)
	assert.Equal(t, types.SectionEducation, sections[2].Kind)
	assert.Equal(t, types.SectionSkills, sections[3].Kind)
}

// TestSegmentNoHeaders 识别不到任何标题时整篇归入一个OTHER章节
func TestSegmentNoHeaders(t *testing.T) {
	blocks := []types.TextBlock{
		bodyBlock("some free-form text"),
		bodyBlock("that looks nothing like a resume"),
	}

	sections := New().Segment(blocks)
	assertCoverage(t, blocks, sections)
	require.Len(t, sections, 1)
	assert.Equal(t, types.SectionOther, sections[0].Kind)
}

// TestSegmentAdjacentHeaders 相邻标题中间无正文时，后者胜出，前者归OTHER
func TestSegmentAdjacentHeaders(t *testing.T) {
	blocks := []types.TextBlock{
		headerBlock("SKILLS"),
		headerBlock("EXPERIENCE"),
		bodyBlock("Software Engineer at Acme"),
	}

	sections := New().Segment(blocks)
	assertCoverage(t, blocks, sections)
	require.Len(t, sections, 2)

	assert.Equal(t, types.SectionOther, sections[0].Kind, "被误判的前一个标题应归入OTHER")
	assert.Equal(t, types.SectionExperience, sections[1].Kind)
	assert.Equal(t, 1, sections[1].Start)
	assert.Equal(t, 3, sections[1].End)
}

// TestSegmentAllCapsWithoutStyle 纯文本加载（无样式元数据）时全大写短行也可作标题
func TestSegmentAllCapsWithoutStyle(t *testing.T) {
	blocks := []types.TextBlock{
		bodyBlock("John Doe"),
		bodyBlock("EDUCATION"),
		bodyBlock("State University"),
	}

	sections := New().Segment(blocks)
	assertCoverage(t, blocks, sections)
	require.Len(t, sections, 2)
	assert.Equal(t, types.SectionEducation, sections[1].Kind)
}

// TestSegmentKeywordInBodyIgnored 词表关键词出现在普通正文长句里不算标题
func TestSegmentKeywordInBodyIgnored(t *testing.T) {
	blocks := []types.TextBlock{
		headerBlock("SUMMARY"),
		bodyBlock("I have ten years of professional experience in distributed systems"),
	}

	sections := New().Segment(blocks)
	assertCoverage(t, blocks, sections)
	require.Len(t, sections, 1)
	assert.Equal(t, types.SectionSummary, sections[0].Kind)
}

func TestSegmentEmptyInput(t *testing.T) {
	assert.Nil(t, New().Segment(nil))
}
