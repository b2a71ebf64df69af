package synthesizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

// span 测试辅助：构造候选
func span(id string, field types.FieldKind, value string, sectionIdx int, confidence float64) types.CandidateSpan {
	return types.CandidateSpan{
		ID:            id,
		Field:         field,
		Value:         value,
		RawText:       value,
		SourceSection: sectionID(sectionIdx),
		SectionIndex:  sectionIdx,
		Confidence:    confidence,
		ExtractorID:   "test",
	}
}

func sectionID(idx int) string {
	return "sec-" + string(rune('a'+idx))
}

// fixedClock 固定在2026-09的时钟，保证年限计算可复现
func fixedClock() time.Time {
	return time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
}

// TestSynthesizeAgreementAfterNormalization 归一化后一致的候选不产生冲突，
// 取最高置信度
func TestSynthesizeAgreementAfterNormalization(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	// 两个提取器产出同一邮箱的不同原文，归一化后值相同
	record := s.Synthesize([]types.CandidateSpan{
		{ID: "c1", Field: types.FieldEmail, Value: "jdoe@x.com", RawText: "J.DOE@X.COM", SourceSection: "sec-a", Confidence: 0.9},
		{ID: "c2", Field: types.FieldEmail, Value: "jdoe@x.com", RawText: "jdoe@x.com", SourceSection: "sec-a", Confidence: 0.6},
	})

	assert.Equal(t, "jdoe@x.com", record.Contact.Email.Value)
	assert.InDelta(t, 0.9, record.Contact.Email.Confidence, 1e-9)
	assert.True(t, record.Contact.Email.Resolved)
	assert.Empty(t, record.UnresolvedConflicts)
	assert.False(t, record.NeedsReview)
}

// TestSynthesizeConflictAutoResolved 值不一致时按簇的置信度和裁决
func TestSynthesizeConflictAutoResolved(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	// jdoe@x.com 簇得分0.6+0.5=1.1，胜过0.9的单候选簇
	record := s.Synthesize([]types.CandidateSpan{
		span("c1", types.FieldEmail, "other@x.com", 0, 0.9),
		span("c2", types.FieldEmail, "jdoe@x.com", 0, 0.6),
		span("c3", types.FieldEmail, "jdoe@x.com", 5, 0.5),
	})

	assert.Equal(t, "jdoe@x.com", record.Contact.Email.Value)
	assert.InDelta(t, 0.6, record.Contact.Email.Confidence, 1e-9)

	require.Len(t, record.UnresolvedConflicts, 1)
	note := record.UnresolvedConflicts[0]
	assert.Equal(t, types.FieldEmail, note.Field)
	assert.Equal(t, types.ResolutionAuto, note.Resolution)
	assert.Equal(t, "c2", note.ChosenID)
	// 冲突守恒：落选候选全部留在记录里
	assert.Len(t, note.Candidates, 3)
	assert.False(t, record.NeedsReview) // 自动裁决不触发人工复核
}

// TestSynthesizeConflictTieBreak 簇得分平局时取文档序靠前的簇
func TestSynthesizeConflictTieBreak(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("late", types.FieldPhone, "+15550000002", 9, 0.6),
		span("early", types.FieldPhone, "+15550000001", 2, 0.6),
	})

	assert.Equal(t, "+15550000001", record.Contact.Phone.Value)
}

// TestSynthesizeBelowThresholdUnresolved 胜出簇得分低于阈值时字段留空待复核
func TestSynthesizeBelowThresholdUnresolved(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("c1", types.FieldName, "John Doe", 0, 0.3),
		span("c2", types.FieldName, "Jane Roe", 0, 0.2),
	})

	assert.Empty(t, record.Contact.Name.Value)
	assert.False(t, record.Contact.Name.Resolved)
	require.Len(t, record.UnresolvedConflicts, 1)
	assert.Equal(t, types.ResolutionUnresolved, record.UnresolvedConflicts[0].Resolution)
	assert.True(t, record.NeedsReview)
}

// TestSynthesizeDateSwap 起止颠倒且置信度充足时交换
func TestSynthesizeDateSwap(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("o1", types.FieldOrg, "Acme Corp", 4, 0.8),
		span("t1", types.FieldTitle, "Engineer", 4, 0.8),
		span("d1", types.FieldDateStart, "2020-01", 4, 0.8),
		span("d2", types.FieldDateEnd, "2018-01", 4, 0.8),
	})

	require.Len(t, record.Experience, 1)
	assert.Equal(t, "2018-01", record.Experience[0].Start)
	assert.Equal(t, "2020-01", record.Experience[0].End)
	require.Len(t, record.UnresolvedConflicts, 1)
	note := record.UnresolvedConflicts[0]
	assert.Equal(t, types.ResolutionAuto, note.Resolution)
	// 记录保留参与裁决的两端日期候选，胜出的是原DATE_END
	require.Len(t, note.Candidates, 2)
	assert.Equal(t, "d1", note.Candidates[0].ID)
	assert.Equal(t, "d2", note.Candidates[1].ID)
	assert.Equal(t, "d2", note.ChosenID)
}

// TestSynthesizeDateSwapLowConfidence 置信度不足时区间作废而不是瞎猜
func TestSynthesizeDateSwapLowConfidence(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("o1", types.FieldOrg, "Acme Corp", 4, 0.8),
		span("d1", types.FieldDateStart, "2020-01", 4, 0.3),
		span("d2", types.FieldDateEnd, "2018-01", 4, 0.3),
	})

	require.Len(t, record.Experience, 1)
	assert.Empty(t, record.Experience[0].Start)
	assert.Empty(t, record.Experience[0].End)
	require.Len(t, record.UnresolvedConflicts, 1)
	note := record.UnresolvedConflicts[0]
	assert.Equal(t, types.ResolutionUnresolved, note.Resolution)
	require.Len(t, note.Candidates, 2)
	assert.Empty(t, note.ChosenID)
	assert.True(t, record.NeedsReview)
}

// TestSynthesizeExperienceDescription 描述候选按条目顺序归属，拆回要点行
func TestSynthesizeExperienceDescription(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("o1", types.FieldOrg, "Acme Corp", 4, 0.8),
		span("t1", types.FieldTitle, "Engineer", 4, 0.8),
		span("x1", types.FieldDescription, "Built data pipelines in Go\nLed a team of 3", 4, 0.75),
	})

	require.Len(t, record.Experience, 1)
	assert.Equal(t, []string{"Built data pipelines in Go", "Led a team of 3"}, record.Experience[0].Description)
}

// TestSynthesizeDescriptionAloneNoEntry 只有描述候选不足以构成一条经历
func TestSynthesizeDescriptionAloneNoEntry(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("x1", types.FieldDescription, "Wrote SQL reports", 4, 0.75),
	})

	assert.Empty(t, record.Experience)
}

// TestSynthesizeEntryOrdering 经历按起始日期倒序，无日期条目排尾保持文档序
func TestSynthesizeEntryOrdering(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("o1", types.FieldOrg, "Old Corp", 4, 0.8),
		span("d1", types.FieldDateStart, "2015-01", 4, 0.8),
		span("d2", types.FieldDateEnd, "2018-01", 4, 0.8),
		span("o2", types.FieldOrg, "No Dates Inc", 10, 0.8),
		span("o3", types.FieldOrg, "New Corp", 16, 0.8),
		span("d3", types.FieldDateStart, "2019-03", 16, 0.8),
		span("d4", types.FieldDateEnd, "PRESENT", 16, 0.8),
	})

	require.Len(t, record.Experience, 3)
	assert.Equal(t, "New Corp", record.Experience[0].Organization)
	assert.Equal(t, "Old Corp", record.Experience[1].Organization)
	assert.Equal(t, "No Dates Inc", record.Experience[2].Organization)
}

// TestSynthesizeEducationSplit 带学位的条目归入教育经历
func TestSynthesizeEducationSplit(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("g1", types.FieldDegree, "Bachelor in Computer Science", 2, 0.9),
		span("g2", types.FieldOrg, "Stanford University", 2, 0.85),
		span("g3", types.FieldDateEnd, "2020-12", 2, 0.6),
		span("w1", types.FieldOrg, "Acme Corp", 8, 0.8),
		span("w2", types.FieldTitle, "Engineer", 8, 0.8),
	})

	require.Len(t, record.Education, 1)
	assert.Equal(t, "Stanford University", record.Education[0].Institution)
	assert.Equal(t, "Bachelor in Computer Science", record.Education[0].Degree)
	assert.Equal(t, "2020-12", record.Education[0].End)

	require.Len(t, record.Experience, 1)
	assert.Equal(t, "Acme Corp", record.Experience[0].Organization)
}

// TestSynthesizeSkillsDeduplicated 技能按值去重、取最高置信度、词典序输出
func TestSynthesizeSkillsDeduplicated(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("s1", types.FieldSkill, "Go", 20, 0.9),
		span("s2", types.FieldSkill, "Go", 22, 0.7),
		span("s3", types.FieldSkill, "Docker", 20, 0.9),
	})

	require.Len(t, record.Skills, 2)
	assert.Equal(t, "Docker", record.Skills[0].Term)
	assert.Equal(t, "Go", record.Skills[1].Term)
	assert.InDelta(t, 0.9, record.Skills[1].Confidence, 1e-9)
}

// TestSynthesizeTotalExperience 年限按月累计，PRESENT按注入时钟折算
func TestSynthesizeTotalExperience(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	record := s.Synthesize([]types.CandidateSpan{
		span("o1", types.FieldOrg, "Old Corp", 4, 0.8),
		span("d1", types.FieldDateStart, "2018-01", 4, 0.9),
		span("d2", types.FieldDateEnd, "2020-01", 4, 0.9),
		span("o2", types.FieldOrg, "New Corp", 10, 0.8),
		span("d3", types.FieldDateStart, "2024-09", 10, 0.9),
		span("d4", types.FieldDateEnd, "PRESENT", 10, 0.9),
	})

	// 2018-01至2020-01共24个月，2024-09至2026-09共24个月
	assert.Equal(t, 48, record.TotalExperience.TotalMonths)
	assert.Equal(t, 4, record.TotalExperience.Years)
	assert.Equal(t, 0, record.TotalExperience.RemainingMonths)
	assert.Equal(t, "4 years 0 months", record.TotalExperience.Formatted)
}

// TestSynthesizeIdempotent 同一候选池反复合成得到相同档案
func TestSynthesizeIdempotent(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))

	pool := []types.CandidateSpan{
		span("c1", types.FieldEmail, "jdoe@x.com", 0, 0.9),
		span("c2", types.FieldEmail, "other@x.com", 0, 0.6),
		span("o1", types.FieldOrg, "Acme Corp", 4, 0.8),
		span("d1", types.FieldDateStart, "2019-01", 4, 0.8),
		span("d2", types.FieldDateEnd, "PRESENT", 4, 0.8),
		span("s1", types.FieldSkill, "Go", 20, 0.9),
	}

	first := s.Synthesize(pool)
	second := s.Synthesize(pool)
	assert.Equal(t, first, second)
}

// TestSynthesizeEmptyPool 空候选池也产出档案而不是报错
func TestSynthesizeEmptyPool(t *testing.T) {
	s := NewSynthesizer(WithClock(fixedClock))
	record := s.Synthesize(nil)

	assert.Empty(t, record.Contact.Email.Value)
	assert.Empty(t, record.Education)
	assert.Empty(t, record.Experience)
	assert.Empty(t, record.Skills)
	assert.False(t, record.NeedsReview)
}
