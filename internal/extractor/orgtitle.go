package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-analyzer-go/internal/types"
)

var (
	// "Software Engineer  Mar 2020 - Present" 职位在前、日期在后的行
	titleWithDatePattern = regexp.MustCompile(`^(.{2,60}?)\s{1,}(` + monthToken + `|` + yearToken + `)\s*(?:–|—|-|to)`)
	// 经历里的要点行
	bulletPattern = regexp.MustCompile(`^\s*[•●■\-*]\s*(.+)`)
	// "Degree in Field" 的字段后缀
	degreeFieldPattern = regexp.MustCompile(`(?i)\bin\s+([A-Za-z][A-Za-z &/\-]+)`)
)

// OrgTitleExtractor 机构/职位/学位提取器
// 消费EDUCATION/EXPERIENCE章节，产出ORG、TITLE、DEGREE候选
type OrgTitleExtractor struct {
	id string
}

// NewOrgTitleExtractor 创建机构/职位提取器
func NewOrgTitleExtractor() *OrgTitleExtractor {
	return &OrgTitleExtractor{id: "orgtitle-v1"}
}

// ID 返回提取器标识
func (e *OrgTitleExtractor) ID() string { return e.id }

// Kinds 机构与职位只在经历类章节里找
func (e *OrgTitleExtractor) Kinds() []types.SectionKind {
	return []types.SectionKind{types.SectionEducation, types.SectionExperience}
}

// Extract 对单个章节提取机构/职位/学位候选
func (e *OrgTitleExtractor) Extract(ctx context.Context, section types.Section) []types.CandidateSpan {
	switch section.Kind {
	case types.SectionEducation:
		return e.extractEducation(section)
	case types.SectionExperience:
		return e.extractExperience(section)
	default:
		return nil
	}
}

// extractEducation 学位按关键词识别，机构按教育机构关键词识别
func (e *OrgTitleExtractor) extractEducation(section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan

	for _, block := range section.Blocks {
		line := strings.TrimSpace(block.Text)
		if line == "" || bulletPattern.MatchString(line) {
			continue
		}

		if kw, ok := containsKeyword(line, degreeKeywords); ok {
			value := kw
			// 带 "in X" 后缀时把专业一并收进学位值
			idx := strings.Index(strings.ToLower(line), strings.ToLower(kw))
			rest := line[idx+len(kw):]
			if m := degreeFieldPattern.FindStringSubmatch(rest); m != nil {
				value = kw + " in " + collapseWhitespace(m[1])
			}
			spans = append(spans, e.newSpan(types.FieldDegree, collapseWhitespace(value), line, section, 0.9))
		}

		if _, ok := containsKeyword(line, institutionKeywords); ok {
			// 逗号分隔的行里取含关键词的那一段作为机构名
			org := line
			for _, part := range strings.Split(line, ",") {
				if _, hit := containsKeyword(part, institutionKeywords); hit {
					org = strings.TrimSpace(part)
					break
				}
			}
			spans = append(spans, e.newSpan(types.FieldOrg, NormalizeOrg(stripDates(org)), line, section, 0.85))
		}
	}

	return spans
}

// extractExperience 职位行（职位+日期）在前，公司行紧随其后，
// 要点行归属最近的职位行，整条经历的要点拼成一个描述候选
func (e *OrgTitleExtractor) extractExperience(section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan

	lines := make([]string, len(section.Blocks))
	for i, block := range section.Blocks {
		lines[i] = strings.TrimSpace(block.Text)
	}

	titleSeen := false
	var bullets, bulletRaw []string
	flushDescription := func() {
		if len(bullets) == 0 {
			return
		}
		spans = append(spans, e.newSpan(types.FieldDescription,
			strings.Join(bullets, "\n"), strings.Join(bulletRaw, "\n"), section, 0.75))
		bullets, bulletRaw = nil, nil
	}

	for i, line := range lines {
		if line == "" {
			continue
		}
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			// 没有归属职位的孤立要点不产出候选
			if titleSeen {
				bullets = append(bullets, collapseWhitespace(m[1]))
				bulletRaw = append(bulletRaw, line)
			}
			continue
		}

		if m := titleWithDatePattern.FindStringSubmatch(line); m != nil {
			flushDescription()
			titleSeen = true
			title := collapseWhitespace(m[1])
			if title != "" {
				spans = append(spans, e.newSpan(types.FieldTitle, title, line, section, 0.8))
			}

			// 下一行（非要点行）通常是公司，可带地点后缀
			if i+1 < len(lines) && lines[i+1] != "" && !bulletPattern.MatchString(lines[i+1]) {
				company := lines[i+1]
				if idx := strings.Index(company, ","); idx > 0 {
					company = company[:idx]
				}
				if !dateRangePattern.MatchString(company) {
					spans = append(spans, e.newSpan(types.FieldOrg, NormalizeOrg(company), lines[i+1], section, 0.7))
				}
			}
			continue
		}

		// 不挨着职位行的公司名靠后缀词识别，置信度更低
		if _, ok := containsKeyword(line, companySuffixes); ok && len(line) <= 60 && !dateRangePattern.MatchString(line) {
			company := line
			if idx := strings.Index(company, ","); idx > 0 {
				company = company[:idx]
			}
			spans = append(spans, e.newSpan(types.FieldOrg, NormalizeOrg(company), line, section, 0.6))
		}
	}
	flushDescription()

	return spans
}

// stripDates 去掉机构名里混排的日期区间和孤立年份
func stripDates(s string) string {
	s = dateRangePattern.ReplaceAllString(s, "")
	s = yearPattern.ReplaceAllString(s, "")
	return strings.Trim(s, " \t-–—,")
}

func (e *OrgTitleExtractor) newSpan(field types.FieldKind, value, raw string, section types.Section, confidence float64) types.CandidateSpan {
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
