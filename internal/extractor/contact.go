package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-analyzer-go/internal/types"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	linkedinPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[\w\-]+`)
	websitePattern  = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?[\w\-]+\.(?:com|io|dev|app|org|net|me)(?:/\S*)?`)
	// 全大写姓名行，例如 "JOHN DOE"
	allCapsNamePattern = regexp.MustCompile(`^[A-Z][A-Z .'\-]+$`)
	// 首字母大写的2-4个词，例如 "John Doe"
	titleCaseNamePattern = regexp.MustCompile(`^[A-Z][a-z'\-]+(?: [A-Z][a-z'\-.]+){1,3}$`)
	// "City, Region" 形态的地点行
	locationPattern = regexp.MustCompile(`^[A-Z][A-Za-z .\-]+,\s*[A-Z][A-Za-z .\-]+$`)
	// 联系方式行里常见的分隔符
	contactSeparators = regexp.MustCompile(`[⋄|•·;]`)
)

// ContactExtractor 联系方式提取器
// 消费CONTACT/SUMMARY/OTHER章节，产出姓名、邮箱、电话、地点、网站、LinkedIn候选
type ContactExtractor struct {
	id string
}

// NewContactExtractor 创建联系方式提取器
func NewContactExtractor() *ContactExtractor {
	return &ContactExtractor{id: "contact-v1"}
}

// ID 返回提取器标识
func (e *ContactExtractor) ID() string { return e.id }

// Kinds 联系方式通常出现在专门章节或文档头（OTHER）里
func (e *ContactExtractor) Kinds() []types.SectionKind {
	return []types.SectionKind{types.SectionContact, types.SectionSummary, types.SectionOther}
}

// Extract 对单个章节提取联系方式候选
func (e *ContactExtractor) Extract(ctx context.Context, section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan

	for blockIdx, block := range section.Blocks {
		line := strings.TrimSpace(block.Text)
		if line == "" {
			continue
		}

		// 邮箱：严格正则命中即满置信度
		for _, raw := range emailPattern.FindAllString(line, -1) {
			spans = append(spans, e.newSpan(types.FieldEmail, NormalizeEmail(raw), raw, section, 1.0))
		}

		// 电话：带国家码的置信度略高于裸10位号
		for _, raw := range phonePattern.FindAllString(line, -1) {
			normalized := NormalizePhone(raw)
			if len(strings.TrimPrefix(normalized, "+")) < 10 {
				continue
			}
			confidence := 0.85
			if strings.HasPrefix(normalized, "+") {
				confidence = 0.95
			}
			spans = append(spans, e.newSpan(types.FieldPhone, normalized, raw, section, confidence))
		}

		// LinkedIn要先于一般网址匹配，避免被website吞掉
		linkedin := linkedinPattern.FindString(line)
		if linkedin != "" {
			spans = append(spans, e.newSpan(types.FieldLinkedIn, strings.ToLower(linkedin), linkedin, section, 0.95))
		}

		for _, raw := range websitePattern.FindAllString(line, -1) {
			lower := strings.ToLower(raw)
			if strings.Contains(lower, "linkedin.com") || strings.Contains(line, "@") {
				continue // linkedin和邮箱域名不算个人网站
			}
			spans = append(spans, e.newSpan(types.FieldWebsite, lower, raw, section, 0.7))
		}

		// 姓名和地点只在文档头部找，越往下越不可信
		if section.Start == 0 && blockIdx < 4 {
			spans = append(spans, e.extractNameAndLocation(line, blockIdx, section)...)
		}
	}

	return spans
}

// extractNameAndLocation 从文档头部的一行里提取姓名与地点候选
func (e *ContactExtractor) extractNameAndLocation(line string, blockIdx int, section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan

	// 含邮箱/网址/数字的行不会是姓名行
	hasContactNoise := strings.ContainsAny(line, "@0123456789")

	if !hasContactNoise {
		if allCapsNamePattern.MatchString(line) && len(line) <= 40 {
			spans = append(spans, e.newSpan(types.FieldName, collapseWhitespace(line), line, section, 0.9))
		} else if titleCaseNamePattern.MatchString(line) {
			confidence := 0.75
			if blockIdx > 0 {
				confidence = 0.5 // 不在首行的姓名形态行可信度减半
			}
			spans = append(spans, e.newSpan(types.FieldName, collapseWhitespace(line), line, section, confidence))
		}
	}

	// 地点：按分隔符切开后找 "City, Region" 形态的片段
	for _, part := range contactSeparators.Split(line, -1) {
		part = strings.TrimSpace(part)
		if locationPattern.MatchString(part) && !titleCaseNamePattern.MatchString(part) {
			spans = append(spans, e.newSpan(types.FieldLocation, collapseWhitespace(part), part, section, 0.5))
		}
	}

	return spans
}

func (e *ContactExtractor) newSpan(field types.FieldKind, value, raw string, section types.Section, confidence float64) types.CandidateSpan {
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
