package extractor

import (
	"context"

	"resume-analyzer-go/internal/types"
)

// Extractor 实体提取器接口
// 每个提取器消费特定类型的章节，产出带置信度的候选值；
// 对畸形输入永不报错，无匹配时返回空切片
type Extractor interface {
	// ID 返回提取器标识，写入每个候选的ExtractorID
	ID() string

	// Kinds 返回该提取器消费的章节类型集合
	Kinds() []types.SectionKind

	// Extract 对单个章节运行提取
	// 同一字段允许产出多个相互矛盾的候选，裁决交给合成器
	Extract(ctx context.Context, section types.Section) []types.CandidateSpan
}

// Registry 提取器注册表，按注册顺序保存
// 合成结果与提取器完成顺序无关，但固定的注册顺序让候选池内容可复现
type Registry struct {
	extractors []Extractor
}

// NewRegistry 创建注册表
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Register 追加一个提取器
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// All 返回全部已注册的提取器
func (r *Registry) All() []Extractor {
	return r.extractors
}

// ForSection 返回声明消费该章节类型的提取器，保持注册顺序
func (r *Registry) ForSection(kind types.SectionKind) []Extractor {
	var out []Extractor
	for _, e := range r.extractors {
		for _, k := range e.Kinds() {
			if k == kind {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// DefaultRegistry 返回装配了全部内置提取器的注册表
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewContactExtractor(),
		NewDateRangeExtractor(),
		NewOrgTitleExtractor(),
		NewSkillExtractor(),
	)
}
