package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-analyzer-go/internal/types"
)

const monthToken = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(?:19|20)\d{2}`
const yearToken = `(?:19|20)\d{2}`

var (
	// "Mar 2020 - Present" / "2016 – 2020" / "Jan 2019 to Dec 2021"
	dateRangePattern = regexp.MustCompile(`(?i)(` + monthToken + `|` + yearToken + `)\s*(?:–|—|-|to)\s*(` + monthToken + `|` + yearToken + `|present|current|now)`)
	// 孤立的月年或年份，作为低置信度的结束日期候选
	loneDatePattern = regexp.MustCompile(`(?i)(` + monthToken + `|` + yearToken + `)`)
)

// DateRangeExtractor 日期区间提取器
// 消费EDUCATION/EXPERIENCE章节，产出DATE_START/DATE_END候选对
type DateRangeExtractor struct {
	id string
}

// NewDateRangeExtractor 创建日期区间提取器
func NewDateRangeExtractor() *DateRangeExtractor {
	return &DateRangeExtractor{id: "daterange-v1"}
}

// ID 返回提取器标识
func (e *DateRangeExtractor) ID() string { return e.id }

// Kinds 日期区间只出现在经历类章节
func (e *DateRangeExtractor) Kinds() []types.SectionKind {
	return []types.SectionKind{types.SectionEducation, types.SectionExperience}
}

// Extract 对单个章节提取日期区间候选
func (e *DateRangeExtractor) Extract(ctx context.Context, section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan

	for _, block := range section.Blocks {
		line := strings.TrimSpace(block.Text)
		if line == "" {
			continue
		}

		matches := dateRangePattern.FindAllStringSubmatch(line, -1)
		for _, m := range matches {
			start := NormalizeDateToken(m[1], false)
			end := NormalizeDateToken(m[2], true)
			if start == "" && end == "" {
				continue
			}

			confidence := rangeConfidence(m[1], m[2])
			if start != "" {
				spans = append(spans, e.newSpan(types.FieldDateStart, start, m[0], section, confidence))
			}
			if end != "" {
				spans = append(spans, e.newSpan(types.FieldDateEnd, end, m[0], section, confidence))
			}
		}

		// 该行没有区间时，孤立日期按结束日期的弱候选处理
		// （教育经历常只写毕业年份）
		if len(matches) == 0 {
			if m := loneDatePattern.FindString(line); m != "" {
				if end := NormalizeDateToken(m, true); end != "" {
					spans = append(spans, e.newSpan(types.FieldDateEnd, end, m, section, 0.6))
				}
			}
		}
	}

	return spans
}

// rangeConfidence 依据日期精度给出置信度：
// 两端都有月份0.95，只有年份0.8，混合0.85
func rangeConfidence(startRaw, endRaw string) float64 {
	startHasMonth := hasMonth(startRaw)
	endHasMonth := hasMonth(endRaw) || presentPattern.MatchString(endRaw)
	switch {
	case startHasMonth && endHasMonth:
		return 0.95
	case startHasMonth || endHasMonth:
		return 0.85
	default:
		return 0.8
	}
}

var monthOnlyPattern = regexp.MustCompile(`(?i)^(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`)

func hasMonth(raw string) bool {
	return monthOnlyPattern.MatchString(strings.TrimSpace(raw))
}

func (e *DateRangeExtractor) newSpan(field types.FieldKind, value, raw string, section types.Section, confidence float64) types.CandidateSpan {
	return types.CandidateSpan{
		ID:            uuid.NewString(),
		Field:         field,
		Value:         value,
		RawText:       raw,
		SourceSection: section.ID,
		SectionIndex:  section.Start,
		Confidence:    confidence,
		ExtractorID:   e.id,
	}
}
