package synthesizer

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// Synthesizer 把候选池合并为规范化档案
// 合成是纯函数：同一候选池反复合成得到相同结果，与提取器完成顺序无关
type Synthesizer struct {
	threshold float64
	now       func() time.Time
	log       zerolog.Logger
}

// Option 合成器配置选项
type Option func(*Synthesizer)

// WithThreshold 设置冲突裁决的置信度阈值
func WithThreshold(threshold float64) Option {
	return func(s *Synthesizer) {
		s.threshold = threshold
	}
}

// WithClock 注入时钟，PRESENT日期的年限计算依赖当前时间
// 测试用固定时钟保证结果可复现
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		s.now = now
	}
}

// WithLogger 设置日志器
func WithLogger(log zerolog.Logger) Option {
	return func(s *Synthesizer) {
		s.log = log
	}
}

// NewSynthesizer 创建合成器
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		threshold: constants.DefaultResolutionThreshold,
		now:       time.Now,
		log:       logger.WithComponent("synthesizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// contactFields 联系方式字段的固定处理顺序，保证冲突记录顺序可复现
var contactFields = []types.FieldKind{
	types.FieldName, types.FieldEmail, types.FieldPhone,
	types.FieldLocation, types.FieldWebsite, types.FieldLinkedIn,
}

// entryFields 经历条目内的字段
var entryFields = map[types.FieldKind]bool{
	types.FieldOrg:         true,
	types.FieldTitle:       true,
	types.FieldDegree:      true,
	types.FieldDateStart:   true,
	types.FieldDateEnd:     true,
	types.FieldDescription: true,
}

// Synthesize 把候选池合并为档案
// 总函数：永不失败，低质量输入产出多未裁决字段的档案
// 产出不含ProfileID，由调用方分配
func (s *Synthesizer) Synthesize(candidates []types.CandidateSpan) types.ProfileRecord {
	record := types.ProfileRecord{
		Education:  []types.EducationEntry{},
		Experience: []types.ExperienceEntry{},
		Skills:     []types.SkillItem{},
	}

	byField := groupByField(candidates)

	// 联系方式：逐字段裁决
	for _, field := range contactFields {
		value, note := s.resolveField(field, byField[field])
		setContactField(&record.Contact, field, value)
		if note != nil {
			record.UnresolvedConflicts = append(record.UnresolvedConflicts, *note)
		}
	}

	// 技能：按规范值去重，取最高置信度，按词排序保证确定性
	record.Skills = mergeSkills(byField[types.FieldSkill])

	// 经历条目：按来源章节聚簇再裁决
	entries, entryNotes := s.buildEntries(candidates)
	record.UnresolvedConflicts = append(record.UnresolvedConflicts, entryNotes...)
	for _, entry := range entries {
		if entry.sectionKind == sectionClassEducation {
			record.Education = append(record.Education, types.EducationEntry{
				Institution: entry.org.Value,
				Degree:      entry.degree.Value,
				Start:       entry.start.Value,
				End:         entry.end.Value,
				Confidence:  entry.confidence(),
			})
		} else {
			record.Experience = append(record.Experience, types.ExperienceEntry{
				Organization: entry.org.Value,
				Title:        entry.title.Value,
				Start:        entry.start.Value,
				End:          entry.end.Value,
				Description:  splitDescription(entry.desc.Value),
				Confidence:   entry.confidence(),
			})
		}
	}

	record.TotalExperience = s.totalExperience(record.Experience)
	record.NeedsReview = hasOpenConflict(record.UnresolvedConflicts)

	s.log.Debug().
		Int("candidates", len(candidates)).
		Int("education", len(record.Education)).
		Int("experience", len(record.Experience)).
		Int("skills", len(record.Skills)).
		Int("conflicts", len(record.UnresolvedConflicts)).
		Bool("needs_review", record.NeedsReview).
		Msg("合成完成")

	return record
}

// groupByField 按字段分组并按文档序排序，保证裁决与候选池顺序无关
func groupByField(candidates []types.CandidateSpan) map[types.FieldKind][]types.CandidateSpan {
	out := make(map[types.FieldKind][]types.CandidateSpan)
	for _, c := range candidates {
		out[c.Field] = append(out[c.Field], c)
	}
	for field, group := range out {
		sortDocumentOrder(group)
		out[field] = group
	}
	return out
}

// sortDocumentOrder 文档序排序：先按章节下标，再按ID稳定兜底
func sortDocumentOrder(spans []types.CandidateSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].SectionIndex != spans[j].SectionIndex {
			return spans[i].SectionIndex < spans[j].SectionIndex
		}
		return false
	})
}

// valueCluster 同一规范值的候选簇
// sum是成员置信度之和，作为簇的一致性得分
type valueCluster struct {
	value string
	sum   float64
	best  types.CandidateSpan
}

// clusterByValue 把一组候选按规范值聚簇，簇按首次出现顺序排列
func clusterByValue(group []types.CandidateSpan) []*valueCluster {
	index := make(map[string]*valueCluster)
	var clusters []*valueCluster
	for _, c := range group {
		cluster, ok := index[c.Value]
		if !ok {
			cluster = &valueCluster{value: c.Value, best: c}
			index[c.Value] = cluster
			clusters = append(clusters, cluster)
		}
		cluster.sum += c.Confidence
		if c.Confidence > cluster.best.Confidence {
			cluster.best = c
		}
	}
	return clusters
}

// resolveField 对单字段的候选组做裁决
// 值一致时直接取最高置信度；不一致时按簇的置信度和裁决，
// 平局取文档序靠前的簇；胜出簇得分低于阈值则留空待复核
func (s *Synthesizer) resolveField(field types.FieldKind, group []types.CandidateSpan) (types.FieldValue, *types.ConflictNote) {
	if len(group) == 0 {
		return types.FieldValue{}, nil
	}

	clusters := clusterByValue(group)
	if len(clusters) == 1 {
		// 归一化后全部一致，无冲突
		best := clusters[0].best
		return types.FieldValue{
			Value:      best.Value,
			Confidence: best.Confidence,
			Provenance: types.ProvenanceExtracted,
			Resolved:   true,
		}, nil
	}

	// 簇按首次出现顺序排列，遍历中用严格大于即可实现文档序平局裁决
	winner := clusters[0]
	for _, cluster := range clusters[1:] {
		if cluster.sum > winner.sum {
			winner = cluster
		}
	}

	note := &types.ConflictNote{
		Field:      field,
		Candidates: append([]types.CandidateSpan(nil), group...),
	}

	if winner.sum < s.threshold {
		note.Resolution = types.ResolutionUnresolved
		return types.FieldValue{}, note
	}

	note.Resolution = types.ResolutionAuto
	note.ChosenID = winner.best.ID
	return types.FieldValue{
		Value:      winner.best.Value,
		Confidence: winner.best.Confidence,
		Provenance: types.ProvenanceExtracted,
		Resolved:   true,
	}, note
}

// setContactField 把裁决结果写入联系方式的对应字段
func setContactField(contact *types.ContactInfo, field types.FieldKind, value types.FieldValue) {
	switch field {
	case types.FieldName:
		contact.Name = value
	case types.FieldEmail:
		contact.Email = value
	case types.FieldPhone:
		contact.Phone = value
	case types.FieldLocation:
		contact.Location = value
	case types.FieldWebsite:
		contact.Website = value
	case types.FieldLinkedIn:
		contact.LinkedIn = value
	}
}

// mergeSkills 技能去重合并：同值取最高置信度，按词典序输出
func mergeSkills(group []types.CandidateSpan) []types.SkillItem {
	best := make(map[string]float64)
	for _, c := range group {
		if c.Confidence > best[c.Value] {
			best[c.Value] = c.Confidence
		}
	}

	terms := make([]string, 0, len(best))
	for term := range best {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	items := make([]types.SkillItem, 0, len(terms))
	for _, term := range terms {
		items = append(items, types.SkillItem{Term: term, Confidence: best[term]})
	}
	return items
}

// hasOpenConflict 是否存在未被人工处理的未裁决冲突
func hasOpenConflict(notes []types.ConflictNote) bool {
	for _, n := range notes {
		if n.Resolution == types.ResolutionUnresolved && n.SupersededBy == "" {
			return true
		}
	}
	return false
}

// totalExperience 汇总工作年限：逐条目按月累计，PRESENT按当前时间折算
func (s *Synthesizer) totalExperience(entries []types.ExperienceEntry) types.TotalExperience {
	nowOrdinal := func() int {
		now := s.now()
		return now.Year()*12 + int(now.Month()) - 1
	}

	total := 0
	for _, e := range entries {
		start := extractor.DateOrdinal(e.Start)
		if start < 0 {
			continue
		}
		end := extractor.DateOrdinal(e.End)
		if e.End == extractor.PresentValue {
			end = nowOrdinal()
		}
		if end < start {
			continue
		}
		total += end - start
	}

	return types.TotalExperience{
		TotalMonths:     total,
		Years:           total / 12,
		RemainingMonths: total % 12,
		Formatted:       fmt.Sprintf("%d years %d months", total/12, total%12),
	}
}
