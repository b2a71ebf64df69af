package synthesizer

import (
	"sort"
	"strings"

	"resume-analyzer-go/internal/extractor"
	"resume-analyzer-go/internal/types"
)

// sectionClass 经历条目的归属
type sectionClass int

const (
	sectionClassExperience sectionClass = iota
	sectionClassEducation
)

// fieldSlot 条目内单字段的裁决结果
// span保留胜出候选，供冲突记录按ID回引候选池
type fieldSlot struct {
	Value      string
	Confidence float64
	span       types.CandidateSpan
}

// entryFragment 从单个章节聚出的条目雏形
// 相邻章节的互补雏形在合并阶段拼成完整条目
type entryFragment struct {
	sectionKind  sectionClass
	sectionOrder int // 来源章节在章节序列中的序号，判定相邻用
	docIndex     int // 章节的文档序下标，无日期条目的排序用

	org    fieldSlot
	title  fieldSlot
	degree fieldSlot
	start  fieldSlot
	end    fieldSlot
	desc   fieldSlot // 要点描述，不参与置信度和冲突判断
}

// confidence 条目置信度取非空字段的平均值
func (f *entryFragment) confidence() float64 {
	sum, n := 0.0, 0
	for _, slot := range []fieldSlot{f.org, f.title, f.degree, f.start, f.end} {
		if slot.Value != "" {
			sum += slot.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// hasDates 是否带可排序的起始日期
func (f *entryFragment) hasDates() bool {
	return f.start.Value != ""
}

// buildEntries 把经历类候选聚成条目序列
// 步骤：按来源章节分组 → 章节内按值去重并配对 → 日期区间校验 →
// 相邻章节互补雏形合并 → 按起始日期倒序排列
func (s *Synthesizer) buildEntries(candidates []types.CandidateSpan) ([]*entryFragment, []types.ConflictNote) {
	sections := groupBySection(candidates)

	var fragments []*entryFragment
	var notes []types.ConflictNote
	for order, sec := range sections {
		frags := splitSectionFragments(sec, order)
		for _, frag := range frags {
			if note := s.checkDateOrder(frag); note != nil {
				notes = append(notes, *note)
			}
		}
		fragments = append(fragments, frags...)
	}

	fragments = mergeAdjacent(fragments)
	sortFragments(fragments)
	return fragments, notes
}

// sectionGroup 单个来源章节的经历类候选
type sectionGroup struct {
	docIndex int
	fields   map[types.FieldKind][]types.CandidateSpan
}

// groupBySection 把经历类候选按来源章节分组，章节按文档序排列
func groupBySection(candidates []types.CandidateSpan) []*sectionGroup {
	index := make(map[string]*sectionGroup)
	var groups []*sectionGroup
	for _, c := range candidates {
		if !entryFields[c.Field] {
			continue
		}
		g, ok := index[c.SourceSection]
		if !ok {
			g = &sectionGroup{
				docIndex: c.SectionIndex,
				fields:   make(map[types.FieldKind][]types.CandidateSpan),
			}
			index[c.SourceSection] = g
			groups = append(groups, g)
		}
		g.fields[c.Field] = append(g.fields[c.Field], c)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].docIndex < groups[j].docIndex
	})
	return groups
}

// splitSectionFragments 把一个章节的候选拆成条目雏形
// 同字段按值去重后，第i个出现的值归入第i个雏形：
// 一个经历章节内的多段工作各自成条
func splitSectionFragments(sec *sectionGroup, order int) []*entryFragment {
	slots := make(map[types.FieldKind][]fieldSlot)
	count := 0
	for field := range entryFields {
		deduped := dedupeByValue(sec.fields[field])
		slots[field] = deduped
		// 描述是附属字段，单独出现不足以构成条目
		if field == types.FieldDescription {
			continue
		}
		if len(deduped) > count {
			count = len(deduped)
		}
	}
	if count == 0 {
		return nil
	}

	fragments := make([]*entryFragment, count)
	for i := 0; i < count; i++ {
		frag := &entryFragment{sectionOrder: order, docIndex: sec.docIndex}
		frag.org = slotAt(slots[types.FieldOrg], i)
		frag.title = slotAt(slots[types.FieldTitle], i)
		frag.degree = slotAt(slots[types.FieldDegree], i)
		frag.start = slotAt(slots[types.FieldDateStart], i)
		frag.end = slotAt(slots[types.FieldDateEnd], i)
		frag.desc = slotAt(slots[types.FieldDescription], i)
		frag.sectionKind = classify(frag)
		fragments[i] = frag
	}
	return fragments
}

// dedupeByValue 同字段去重：同值候选并成一个槽位，取最高置信度，
// 槽位保持首次出现顺序
func dedupeByValue(spans []types.CandidateSpan) []fieldSlot {
	var out []fieldSlot
	seen := make(map[string]int)
	for _, c := range spans {
		if idx, ok := seen[c.Value]; ok {
			if c.Confidence > out[idx].Confidence {
				out[idx].Confidence = c.Confidence
				out[idx].span = c
			}
			continue
		}
		seen[c.Value] = len(out)
		out = append(out, fieldSlot{Value: c.Value, Confidence: c.Confidence, span: c})
	}
	return out
}

func slotAt(slots []fieldSlot, i int) fieldSlot {
	if i < len(slots) {
		return slots[i]
	}
	return fieldSlot{}
}

// splitDescription 把拼接的描述候选还原成要点行
func splitDescription(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, "\n")
}

// classify 带学位的雏形归教育经历，其余归工作经历
func classify(frag *entryFragment) sectionClass {
	if frag.degree.Value != "" {
		return sectionClassEducation
	}
	return sectionClassExperience
}

// checkDateOrder 日期区间校验：起始须不晚于结束
// 顺序颠倒时，两端置信度均值不低于阈值才交换，否则整个区间作废待复核
func (s *Synthesizer) checkDateOrder(frag *entryFragment) *types.ConflictNote {
	if frag.start.Value == "" || frag.end.Value == "" {
		return nil
	}
	startOrd := extractor.DateOrdinal(frag.start.Value)
	endOrd := extractor.DateOrdinal(frag.end.Value)
	if startOrd < 0 || endOrd < 0 || startOrd <= endOrd {
		return nil
	}

	note := &types.ConflictNote{
		Field:      types.FieldDateStart,
		Candidates: []types.CandidateSpan{frag.start.span, frag.end.span},
	}
	combined := (frag.start.Confidence + frag.end.Confidence) / 2
	if combined >= s.threshold {
		frag.start, frag.end = frag.end, frag.start
		note.Resolution = types.ResolutionAuto
		note.ChosenID = frag.start.span.ID
		return note
	}

	frag.start = fieldSlot{}
	frag.end = fieldSlot{}
	note.Resolution = types.ResolutionUnresolved
	return note
}

// mergeAdjacent 合并相邻章节的互补雏形
// 条件：章节相邻、日期兼容、且非日期字段不互相矛盾
func mergeAdjacent(fragments []*entryFragment) []*entryFragment {
	var out []*entryFragment
	for _, frag := range fragments {
		if len(out) > 0 && mergeable(out[len(out)-1], frag) {
			merge(out[len(out)-1], frag)
			continue
		}
		out = append(out, frag)
	}
	return out
}

// mergeable 两个雏形能否并成一条
func mergeable(a, b *entryFragment) bool {
	if b.sectionOrder-a.sectionOrder != 1 {
		return false
	}
	if conflicting(a.org, b.org) || conflicting(a.title, b.title) || conflicting(a.degree, b.degree) {
		return false
	}
	return datesCompatible(a, b)
}

// conflicting 两个槽位都有值且值不同
func conflicting(a, b fieldSlot) bool {
	return a.Value != "" && b.Value != "" && a.Value != b.Value
}

// datesCompatible 日期兼容：任一方没有日期，或两个区间有交叠
func datesCompatible(a, b *entryFragment) bool {
	if !a.hasDates() || !b.hasDates() {
		return true
	}
	aStart, aEnd := rangeOrdinals(a)
	bStart, bEnd := rangeOrdinals(b)
	return aStart <= bEnd && bStart <= aEnd
}

// rangeOrdinals 区间的月序号端点，缺失结束日期视为开区间
func rangeOrdinals(frag *entryFragment) (int, int) {
	start := extractor.DateOrdinal(frag.start.Value)
	end := extractor.DateOrdinal(frag.end.Value)
	if end < 0 {
		end = 1 << 30
	}
	return start, end
}

// merge 把b的字段补进a，同值字段取更高置信度
func merge(a, b *entryFragment) {
	fill := func(dst *fieldSlot, src fieldSlot) {
		if dst.Value == "" {
			*dst = src
		} else if src.Value == dst.Value && src.Confidence > dst.Confidence {
			dst.Confidence = src.Confidence
			dst.span = src.span
		}
	}
	fill(&a.org, b.org)
	fill(&a.title, b.title)
	fill(&a.degree, b.degree)
	fill(&a.start, b.start)
	fill(&a.end, b.end)
	fill(&a.desc, b.desc)
	if b.degree.Value != "" {
		a.sectionKind = sectionClassEducation
	}
}

// sortFragments 起始日期倒序（最近在前），无日期条目排尾且保持文档序
func sortFragments(fragments []*entryFragment) {
	sort.SliceStable(fragments, func(i, j int) bool {
		a, b := fragments[i], fragments[j]
		switch {
		case a.hasDates() && b.hasDates():
			return extractor.DateOrdinal(a.start.Value) > extractor.DateOrdinal(b.start.Value)
		case a.hasDates():
			return true
		case b.hasDates():
			return false
		default:
			return false // 都无日期时保持文档序
		}
	})
}
