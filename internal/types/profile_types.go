package types

import "fmt"

// SectionKind 表示简历章节类型
type SectionKind string

const (
	// SectionContact 联系方式章节
	SectionContact SectionKind = "CONTACT"
	// SectionSummary 个人简介章节
	SectionSummary SectionKind = "SUMMARY"
	// SectionEducation 教育经历章节
	SectionEducation SectionKind = "EDUCATION"
	// SectionExperience 工作经历章节
	SectionExperience SectionKind = "EXPERIENCE"
	// SectionSkills 技能章节
	SectionSkills SectionKind = "SKILLS"
	// SectionOther 未分类内容章节
	SectionOther SectionKind = "OTHER"
)

// FontSizeBucket 字号分档，用于版式启发式判断
type FontSizeBucket int

const (
	// FontSizeBody 正文字号
	FontSizeBody FontSizeBucket = iota
	// FontSizeSubhead 小标题字号
	FontSizeSubhead
	// FontSizeHeadline 大标题字号
	FontSizeHeadline
)

// Rect 文本块的包围盒，坐标为PDF用户空间（原点在页面左下角）
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// TextStyle 文本块的样式元数据
type TextStyle struct {
	FontSizeBucket FontSizeBucket `json:"font_size_bucket"` // 字号档位
	IsBold         bool           `json:"is_bold"`          // 是否粗体
}

// TextBlock 加载器产出的带版式信息的文本块，创建后不可变
// 顺序为文档阅读序：先自上而下，同一行带内自左向右
type TextBlock struct {
	Text  string    `json:"text"`
	Page  int       `json:"page"`
	BBox  Rect      `json:"bbox"`
	Style TextStyle `json:"style"`
}

// Section 切分器产出的带标签章节
// 不变量：全部章节按文档序互不重叠，且并集覆盖整个文本块序列
type Section struct {
	ID     string      `json:"id"`     // 章节标识符
	Kind   SectionKind `json:"kind"`   // 章节类型
	Title  string      `json:"title"`  // 实际的章节标题（OTHER章节可为空）
	Blocks []TextBlock `json:"blocks"` // 章节内的文本块，保持文档序
	Start  int         `json:"start"`  // 在文档块序列中的起始下标（含）
	End    int         `json:"end"`    // 在文档块序列中的结束下标（不含）
}

// FieldKind 结构化字段类型
type FieldKind string

const (
	FieldName      FieldKind = "NAME"
	FieldEmail     FieldKind = "EMAIL"
	FieldPhone     FieldKind = "PHONE"
	FieldLocation  FieldKind = "LOCATION"
	FieldWebsite   FieldKind = "WEBSITE"
	FieldLinkedIn  FieldKind = "LINKEDIN"
	FieldDegree    FieldKind = "DEGREE"
	FieldOrg       FieldKind = "ORG"
	FieldTitle     FieldKind = "TITLE"
	FieldDateStart FieldKind = "DATE_START"
	FieldDateEnd   FieldKind = "DATE_END"
	FieldSkill     FieldKind = "SKILL"
	// FieldDescription 一条经历的要点描述，值为换行拼接的要点行
	FieldDescription FieldKind = "DESCRIPTION"
)

// CandidateSpan 单个提取器对某一字段的候选值，创建后不可变
// 每篇文档的候选池只追加不修改
type CandidateSpan struct {
	ID            string    `json:"id"`             // 候选标识符，供冲突记录和评分解释弱引用
	Field         FieldKind `json:"field"`          // 目标字段
	Value         string    `json:"value"`          // 归一化后的值
	RawText       string    `json:"raw_text"`       // 原始文本
	SourceSection string    `json:"source_section"` // 来源章节ID
	SectionIndex  int       `json:"section_index"`  // 来源章节的文档序下标，用于确定性平局裁决
	Confidence    float64   `json:"confidence"`     // 置信度 [0,1]
	ExtractorID   string    `json:"extractor_id"`   // 提取器标识
}

// Provenance 字段值的来源标记
type Provenance string

const (
	// ProvenanceExtracted 值来自自动提取
	ProvenanceExtracted Provenance = "extracted"
	// ProvenanceManual 值来自人工编辑，置信度恒为1.0
	ProvenanceManual Provenance = "manual"
)

// FieldValue 合成后的单字段结果
type FieldValue struct {
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
	Resolved   bool       `json:"resolved"` // false表示置信度不足，留空待人工复核
}

// ContactInfo 联系方式
type ContactInfo struct {
	Name     FieldValue `json:"name"`
	Email    FieldValue `json:"email"`
	Phone    FieldValue `json:"phone"`
	Location FieldValue `json:"location"`
	Website  FieldValue `json:"website"`
	LinkedIn FieldValue `json:"linkedin"`
}

// EducationEntry 一条教育经历
type EducationEntry struct {
	Institution string  `json:"institution"`
	Degree      string  `json:"degree"`
	Start       string  `json:"start"` // YYYY-MM，可为空
	End         string  `json:"end"`   // YYYY-MM 或 PRESENT，可为空
	Confidence  float64 `json:"confidence"`
}

// ExperienceEntry 一条工作经历
type ExperienceEntry struct {
	Organization string   `json:"organization"`
	Title        string   `json:"title"`
	Start        string   `json:"start"` // YYYY-MM，可为空
	End          string   `json:"end"`   // YYYY-MM 或 PRESENT，可为空
	Description  []string `json:"description,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// SkillItem 一项技能
type SkillItem struct {
	Term       string  `json:"term"`
	Confidence float64 `json:"confidence"`
}

// TotalExperience 工作年限汇总
type TotalExperience struct {
	TotalMonths     int    `json:"total_months"`
	Years           int    `json:"years"`
	RemainingMonths int    `json:"remaining_months"`
	Formatted       string `json:"formatted"` // 例如 "3 years 4 months"
}

// Resolution 冲突裁决结果
type Resolution string

const (
	// ResolutionAuto 自动裁决出胜出值
	ResolutionAuto Resolution = "AUTO_RESOLVED"
	// ResolutionUnresolved 置信度不足，留待人工裁决
	ResolutionUnresolved Resolution = "LEFT_UNRESOLVED"
)

// ConflictNote 一次字段冲突的审计记录
// 合成期间创建，之后只追加不删除；候选仅按ID弱引用候选池
type ConflictNote struct {
	Field        FieldKind       `json:"field"`
	Candidates   []CandidateSpan `json:"candidates"` // 全部参与裁决的候选，按文档序
	Resolution   Resolution      `json:"resolution"`
	ChosenID     string          `json:"chosen_id,omitempty"` // 胜出候选的ID，未裁决时为空
	SupersededBy string          `json:"superseded_by,omitempty"`
}

// ProfileRecord 合成器产出的规范化候选人档案
type ProfileRecord struct {
	ProfileID           string            `json:"profile_id"`
	Contact             ContactInfo       `json:"contact"`
	Education           []EducationEntry  `json:"education"`
	Experience          []ExperienceEntry `json:"experience"`
	Skills              []SkillItem       `json:"skills"`
	TotalExperience     TotalExperience   `json:"total_experience"`
	UnresolvedConflicts []ConflictNote    `json:"unresolved_conflicts"`
	NeedsReview         bool              `json:"needs_review"` // 存在未裁决字段时为true
}

// ExplanationItem 评分解释中的一项
type ExplanationItem struct {
	Criterion         string  `json:"criterion"`
	ContributingField string  `json:"contributing_field"`
	Weight            float64 `json:"weight"`
	Score             float64 `json:"score"`
	Note              string  `json:"note,omitempty"` // 例如 "missing_required_field"
}

// Rating 评分引擎的产出，随ProfileRecord变化重算，不独立持久化
type Rating struct {
	SubScores   map[string]float64 `json:"sub_scores"`
	Aggregate   float64            `json:"aggregate"`
	Explanation []ExplanationItem  `json:"explanation"`
}

// Clone 深拷贝档案，供纯函数式编辑使用
func (p ProfileRecord) Clone() ProfileRecord {
	out := p
	out.Education = append([]EducationEntry(nil), p.Education...)
	out.Experience = make([]ExperienceEntry, len(p.Experience))
	for i, e := range p.Experience {
		e.Description = append([]string(nil), e.Description...)
		out.Experience[i] = e
	}
	out.Skills = append([]SkillItem(nil), p.Skills...)
	out.UnresolvedConflicts = make([]ConflictNote, len(p.UnresolvedConflicts))
	for i, c := range p.UnresolvedConflicts {
		c.Candidates = append([]CandidateSpan(nil), c.Candidates...)
		out.UnresolvedConflicts[i] = c
	}
	return out
}

// String 实现Stringer，便于日志输出
func (s Section) String() string {
	return fmt.Sprintf("%s[%d:%d](%d blocks)", s.Kind, s.Start, s.End, len(s.Blocks))
}
