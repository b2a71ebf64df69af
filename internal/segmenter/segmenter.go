package segmenter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// VocabEntry 标题词表项，按声明顺序匹配（长词在前）
type VocabEntry struct {
	Keyword string
	Kind    types.SectionKind
}

// defaultHeaderVocab 章节标题词表
// 词表来源于常见英文简历的章节命名习惯，匹配时对块文本取大写后做包含判断
var defaultHeaderVocab = []VocabEntry{
	{"TECHNICAL SKILLS", types.SectionSkills},
	{"ADDITIONAL SKILLS", types.SectionSkills},
	{"CORE COMPETENCIES", types.SectionSkills},
	{"WORK EXPERIENCE", types.SectionExperience},
	{"WORK HISTORY", types.SectionExperience},
	{"PROFESSIONAL EXPERIENCE", types.SectionExperience},
	{"EMPLOYMENT", types.SectionExperience},
	{"INTERNSHIPS", types.SectionExperience},
	{"EXPERIENCE", types.SectionExperience},
	{"EDUCATION", types.SectionEducation},
	{"ACADEMIC BACKGROUND", types.SectionEducation},
	{"SKILLS", types.SectionSkills},
	{"LANGUAGES", types.SectionSkills},
	{"CONTACT", types.SectionContact},
	{"SUMMARY", types.SectionSummary},
	{"OBJECTIVE", types.SectionSummary},
	{"PROFILE", types.SectionSummary},
	{"ABOUT ME", types.SectionSummary},
	{"PROJECTS", types.SectionOther},
	{"AWARDS", types.SectionOther},
	{"CERTIFICATIONS", types.SectionOther},
	{"INTERESTS", types.SectionOther},
	{"ADDITIONAL", types.SectionOther},
}

// 全大写短行模式，用于没有样式元数据时的标题识别
var allCapsHeaderPattern = regexp.MustCompile(`^[A-Z][A-Z\s&]+$`)

// 标题行的最大长度，超过则认为是正文
const maxHeaderLength = 48

// Segmenter 章节切分器
// 依据版式信号（粗体、较大字号）加词表匹配识别章节标题；
// 两个标题之间的文本归属前一个标题的章节，首个标题之前归OTHER
type Segmenter struct {
	vocab  []VocabEntry
	logger zerolog.Logger
}

// Option 切分器配置选项
type Option func(*Segmenter)

// WithVocabulary 替换标题词表
func WithVocabulary(vocab []VocabEntry) Option {
	return func(s *Segmenter) {
		if len(vocab) > 0 {
			s.vocab = vocab
		}
	}
}

// WithLogger 设置自定义日志记录器
func WithLogger(lg zerolog.Logger) Option {
	return func(s *Segmenter) {
		s.logger = lg
	}
}

// New 创建章节切分器
func New(options ...Option) *Segmenter {
	s := &Segmenter{
		vocab:  defaultHeaderVocab,
		logger: logger.WithComponent("segmenter"),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Segment 把文本块序列切分为互不重叠、全覆盖的章节序列
// 永不失败：最坏情况返回一个覆盖全文的OTHER章节
func (s *Segmenter) Segment(blocks []types.TextBlock) []types.Section {
	if len(blocks) == 0 {
		return nil
	}

	type headerHit struct {
		index int
		kind  types.SectionKind
		title string
	}

	var headers []headerHit
	for i, block := range blocks {
		if kind, ok := s.classifyHeader(block); ok {
			headers = append(headers, headerHit{index: i, kind: kind, title: strings.TrimSpace(block.Text)})
		}
	}

	// 相邻标题平局裁决：中间无正文时后者胜出，前者按误判归入OTHER
	for i := 0; i+1 < len(headers); i++ {
		if headers[i+1].index == headers[i].index+1 {
			headers[i].kind = types.SectionOther
			headers[i].title = ""
		}
	}

	var sections []types.Section
	appendSection := func(kind types.SectionKind, title string, start, end int) {
		if start >= end {
			return
		}
		sections = append(sections, types.Section{
			ID:     fmt.Sprintf("sec-%d", len(sections)),
			Kind:   kind,
			Title:  title,
			Blocks: blocks[start:end],
			Start:  start,
			End:    end,
		})
	}

	if len(headers) == 0 {
		appendSection(types.SectionOther, "", 0, len(blocks))
		s.logger.Debug().Int("blocks", len(blocks)).Msg("未识别到任何章节标题，整篇归入OTHER")
		return sections
	}

	// 首个标题之前的内容归OTHER（通常是姓名和联系方式的文档头）
	appendSection(types.SectionOther, "", 0, headers[0].index)

	for i, h := range headers {
		end := len(blocks)
		if i+1 < len(headers) {
			end = headers[i+1].index
		}
		appendSection(h.kind, h.title, h.index, end)
	}

	s.logger.Debug().
		Int("blocks", len(blocks)).
		Int("sections", len(sections)).
		Msg("章节切分完成")

	return sections
}

// classifyHeader 判断一个文本块是否为章节标题，并给出章节类型
// 命中词表是必要条件；此外还需有版式信号（粗体或字号高于正文）
// 或满足全大写短行模式（纯文本加载时的退路）
func (s *Segmenter) classifyHeader(block types.TextBlock) (types.SectionKind, bool) {
	text := strings.TrimSpace(block.Text)
	if text == "" || len(text) > maxHeaderLength {
		return "", false
	}

	upper := strings.ToUpper(text)
	var kind types.SectionKind
	matched := false
	for _, entry := range s.vocab {
		if strings.Contains(upper, entry.Keyword) {
			kind = entry.Kind
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	styleSignal := block.Style.IsBold || block.Style.FontSizeBucket > types.FontSizeBody
	capsSignal := allCapsHeaderPattern.MatchString(text)
	if !styleSignal && !capsSignal {
		return "", false
	}

	return kind, true
}
