package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

// TestDateRangeMonthPrecision 两端带月份的区间拿到最高置信度
func TestDateRangeMonthPrecision(t *testing.T) {
	section := makeSection(types.SectionExperience, 10, "Software Engineer  Mar 2020 - Present")
	spans := NewDateRangeExtractor().Extract(context.Background(), section)

	starts := findSpans(spans, types.FieldDateStart)
	require.Len(t, starts, 1)
	assert.Equal(t, "2020-03", starts[0].Value)
	assert.InDelta(t, 0.95, starts[0].Confidence, 1e-9)

	ends := findSpans(spans, types.FieldDateEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, PresentValue, ends[0].Value)
}

// TestDateRangeYearOnly 仅年份的区间：起始取1月、结束取12月，置信度降档
func TestDateRangeYearOnly(t *testing.T) {
	section := makeSection(types.SectionEducation, 5, "B.Sc Computer Science  2016 – 2020")
	spans := NewDateRangeExtractor().Extract(context.Background(), section)

	starts := findSpans(spans, types.FieldDateStart)
	require.Len(t, starts, 1)
	assert.Equal(t, "2016-01", starts[0].Value)
	assert.InDelta(t, 0.8, starts[0].Confidence, 1e-9)

	ends := findSpans(spans, types.FieldDateEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, "2020-12", ends[0].Value)
}

// TestDateRangeMixedPrecision 一端带月份的区间取中间置信度
func TestDateRangeMixedPrecision(t *testing.T) {
	section := makeSection(types.SectionExperience, 8, "Analyst  2018 to Jun 2019")
	spans := NewDateRangeExtractor().Extract(context.Background(), section)

	starts := findSpans(spans, types.FieldDateStart)
	require.Len(t, starts, 1)
	assert.InDelta(t, 0.85, starts[0].Confidence, 1e-9)
}

// TestDateRangeLoneYear 孤立年份按弱结束日期候选处理
func TestDateRangeLoneYear(t *testing.T) {
	section := makeSection(types.SectionEducation, 5, "Graduated 2019")
	spans := NewDateRangeExtractor().Extract(context.Background(), section)

	assert.Empty(t, findSpans(spans, types.FieldDateStart))
	ends := findSpans(spans, types.FieldDateEnd)
	require.Len(t, ends, 1)
	assert.Equal(t, "2019-12", ends[0].Value)
	assert.InDelta(t, 0.6, ends[0].Confidence, 1e-9)
}

// TestDateRangeNoDates 无日期行不产出候选
func TestDateRangeNoDates(t *testing.T) {
	section := makeSection(types.SectionExperience, 8, "Led a team of five engineers")
	spans := NewDateRangeExtractor().Extract(context.Background(), section)
	assert.Empty(t, spans)
}
