package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"resume-analyzer-go/internal/types"
)

var (
	// "Languages: Go, Python, SQL" 分类前缀行
	categoryLinePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z /&\-]{1,30}):\s*(.+)$`)
	// 技能项的分隔符：逗号、顿号、竖线、圆点
	skillSeparators = regexp.MustCompile(`[,、|•·]`)
	// 疑似章节标题的全大写短行
	allCapsLinePattern = regexp.MustCompile(`^[A-Z][A-Z\s&]+$`)
)

// SkillExtractor 技能提取器
// 消费SKILLS/OTHER章节，产出SKILL候选
type SkillExtractor struct {
	id string
}

// NewSkillExtractor 创建技能提取器
func NewSkillExtractor() *SkillExtractor {
	return &SkillExtractor{id: "skill-v1"}
}

// ID 返回提取器标识
func (e *SkillExtractor) ID() string { return e.id }

// Kinds 技能只在技能章节和未分类章节里找
func (e *SkillExtractor) Kinds() []types.SectionKind {
	return []types.SectionKind{types.SectionSkills, types.SectionOther}
}

// Extract 对单个章节提取技能候选
// OTHER章节只接受词表命中的技能，避免把正文噪声当技能收录
func (e *SkillExtractor) Extract(ctx context.Context, section types.Section) []types.CandidateSpan {
	var spans []types.CandidateSpan
	lexiconOnly := section.Kind != types.SectionSkills

	for _, block := range section.Blocks {
		line := strings.TrimSpace(block.Text)
		if line == "" || allCapsLinePattern.MatchString(line) {
			continue
		}

		items, fromCategory := splitSkillLine(line)
		for _, item := range items {
			canonical, inLexicon := canonicalSkill(item)
			if canonical == "" || len(canonical) > 40 {
				continue
			}
			if lexiconOnly && !inLexicon {
				continue
			}

			confidence := 0.7
			if inLexicon {
				confidence = 0.9
			} else if fromCategory {
				confidence = 0.8 // 分类行里的未知词仍然大概率是技能
			}
			spans = append(spans, e.newSpan(canonical, item, section, confidence))
		}
	}

	return spans
}

// splitSkillLine 把一行拆成技能项，返回是否来自分类前缀行
func splitSkillLine(line string) ([]string, bool) {
	fromCategory := false
	body := line

	if m := categoryLinePattern.FindStringSubmatch(line); m != nil {
		body = m[2]
		fromCategory = true
	}
	body = strings.TrimLeft(body, "•●■-* \t")

	var items []string
	for _, part := range skillSeparators.Split(body, -1) {
		part = strings.TrimSpace(part)
		if part == "" || len(part) < 2 {
			continue
		}
		items = append(items, part)
	}
	return items, fromCategory
}

func (e *SkillExtractor) newSpan(value, raw string, section types.Section, confidence float64) types.CandidateSpan {
	return types.CandidateSpan{
		ID:            uuid.NewString(),
		Field:         types.FieldSkill,
		Value:         value,
		RawText:       raw,
		SourceSection: section.ID,
		SectionIndex:  section.Start,
		Confidence:    confidence,
		ExtractorID:   e.id,
	}
}
