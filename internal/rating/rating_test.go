package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

// sampleRubricYAML 测试用细则
const sampleRubricYAML = `
criteria:
  - name: experience
    weight: 0.4
    scoring_fn: years_of_experience
    required_fields: [years_of_experience]
    params:
      full_score_years: 8
  - name: skills
    weight: 0.3
    scoring_fn: skill_coverage
    required_fields: [skills]
    params:
      target_skills: [Go, Docker, Kubernetes, PostgreSQL]
  - name: education
    weight: 0.2
    scoring_fn: education_level
    required_fields: [education]
  - name: contact
    weight: 0.1
    scoring_fn: contact_completeness
    required_fields: [contact]
`

func resolvedField(value string) types.FieldValue {
	return types.FieldValue{Value: value, Confidence: 0.9, Provenance: types.ProvenanceExtracted, Resolved: true}
}

// sampleRecord 字段齐全的档案
func sampleRecord() types.ProfileRecord {
	return types.ProfileRecord{
		Contact: types.ContactInfo{
			Name:  resolvedField("John Doe"),
			Email: resolvedField("jdoe@x.com"),
			Phone: resolvedField("+15551234567"),
		},
		Education: []types.EducationEntry{
			{Institution: "Stanford University", Degree: "Master of Science", Confidence: 0.85},
		},
		Experience: []types.ExperienceEntry{
			{Organization: "Acme Corp", Title: "Engineer", Start: "2020-01", End: "2024-01", Confidence: 0.8},
		},
		Skills: []types.SkillItem{
			{Term: "Go", Confidence: 0.9},
			{Term: "Docker", Confidence: 0.9},
		},
		TotalExperience: types.TotalExperience{TotalMonths: 48, Years: 4, Formatted: "4 years 0 months"},
	}
}

// TestRateFullRecord 验证各子分与加权聚合
func TestRateFullRecord(t *testing.T) {
	rubric, err := ParseRubric([]byte(sampleRubricYAML))
	require.NoError(t, err)

	rating, err := NewEngine().Rate(sampleRecord(), rubric)
	require.NoError(t, err)

	// 4年对8年满分线 = 0.5
	assert.InDelta(t, 0.5, rating.SubScores["experience"], 1e-9)
	// 4个目标技能命中2个 = 0.5
	assert.InDelta(t, 0.5, rating.SubScores["skills"], 1e-9)
	// 硕士档位
	assert.InDelta(t, 0.85, rating.SubScores["education"], 1e-9)
	// 6个联系字段填了3个
	assert.InDelta(t, 0.5, rating.SubScores["contact"], 1e-9)

	want := 0.4*0.5 + 0.3*0.5 + 0.2*0.85 + 0.1*0.5
	assert.InDelta(t, want, rating.Aggregate, 1e-9)

	// 解释顺序与细则里的标准顺序一致
	require.Len(t, rating.Explanation, 4)
	assert.Equal(t, "experience", rating.Explanation[0].Criterion)
	assert.Equal(t, "contact", rating.Explanation[3].Criterion)
}

// TestRateMissingRequiredField 前置字段缺失的标准判零分并注明原因，
// 其余字段质量再好也不影响这一判定
func TestRateMissingRequiredField(t *testing.T) {
	rubric, err := ParseRubric([]byte(sampleRubricYAML))
	require.NoError(t, err)

	record := sampleRecord()
	record.Experience = nil
	record.TotalExperience = types.TotalExperience{}

	rating, err := NewEngine().Rate(record, rubric)
	require.NoError(t, err)

	assert.Equal(t, 0.0, rating.SubScores["experience"])
	assert.Equal(t, noteMissingRequired, rating.Explanation[0].Note)
	assert.Equal(t, "years_of_experience", rating.Explanation[0].ContributingField)
	// 其余标准正常打分
	assert.InDelta(t, 0.5, rating.SubScores["skills"], 1e-9)
}

// TestRateUnresolvedFieldFailsClosed 未裁决字段等同缺失
func TestRateUnresolvedFieldFailsClosed(t *testing.T) {
	rubric, err := ParseRubric([]byte(`
criteria:
  - name: reachable
    weight: 1.0
    scoring_fn: contact_completeness
    required_fields: [email]
`))
	require.NoError(t, err)

	record := sampleRecord()
	record.Contact.Email = types.FieldValue{Value: "", Resolved: false}

	rating, err := NewEngine().Rate(record, rubric)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rating.SubScores["reachable"])
	assert.Equal(t, noteMissingRequired, rating.Explanation[0].Note)
}

// TestRateInvalidWeightSum 权重和不为1.0时在任何打分前失败
func TestRateInvalidWeightSum(t *testing.T) {
	_, err := ParseRubric([]byte(`
criteria:
  - name: a
    weight: 0.5
    scoring_fn: contact_completeness
  - name: b
    weight: 0.4
    scoring_fn: education_level
`))
	assert.ErrorIs(t, err, ErrInvalidRubric)
}

// TestRateUnknownScoringFn 未知打分函数在校验期拦下
func TestRateUnknownScoringFn(t *testing.T) {
	_, err := ParseRubric([]byte(`
criteria:
  - name: a
    weight: 1.0
    scoring_fn: astrology
`))
	assert.ErrorIs(t, err, ErrInvalidRubric)
}

// TestRateDuplicateCriterionName 标准名重复视为无效细则
func TestRateDuplicateCriterionName(t *testing.T) {
	_, err := ParseRubric([]byte(`
criteria:
  - name: a
    weight: 0.5
    scoring_fn: education_level
  - name: a
    weight: 0.5
    scoring_fn: contact_completeness
`))
	assert.ErrorIs(t, err, ErrInvalidRubric)
}

// TestRateDeterministic 同一输入两次评分结果逐位相同
func TestRateDeterministic(t *testing.T) {
	rubric, err := ParseRubric([]byte(sampleRubricYAML))
	require.NoError(t, err)

	engine := NewEngine()
	record := sampleRecord()

	first, err := engine.Rate(record, rubric)
	require.NoError(t, err)
	second, err := engine.Rate(record, rubric)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestScoreYearsOfExperienceCapped 超过满分年限按满分封顶
func TestScoreYearsOfExperienceCapped(t *testing.T) {
	rubric, err := ParseRubric([]byte(`
criteria:
  - name: experience
    weight: 1.0
    scoring_fn: years_of_experience
    required_fields: [years_of_experience]
    params:
      full_score_years: 5
`))
	require.NoError(t, err)

	record := sampleRecord()
	record.TotalExperience.TotalMonths = 120 // 10年

	rating, err := NewEngine().Rate(record, rubric)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rating.SubScores["experience"])
}
