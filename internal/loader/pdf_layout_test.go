package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-analyzer-go/internal/types"
)

// TestLoadRejectsInvalidPDF 非PDF字节流必须返回ErrUnreadableDocument
func TestLoadRejectsInvalidPDF(t *testing.T) {
	l := NewLayoutPDFLoader()

	_, err := l.Load(context.Background(), []byte("this is definitely not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadableDocument), "期望错误链包含ErrUnreadableDocument")

	var detail *UnreadableDocumentError
	require.True(t, errors.As(err, &detail))
	assert.NotEmpty(t, detail.Reason)
}

// TestModalFontSize 正文字号取字符数加权的众数
func TestModalFontSize(t *testing.T) {
	frags := []fragment{
		{text: "JOHN DOE", fontSize: 18},
		{text: "Software engineer with ten years of experience", fontSize: 10},
		{text: "EXPERIENCE", fontSize: 14},
		{text: "Built a large distributed system from scratch", fontSize: 10},
	}

	assert.Equal(t, 10.0, modalFontSize(frags))
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		name     string
		size     float64
		body     float64
		expected types.FontSizeBucket
	}{
		{"正文字号", 10, 10, types.FontSizeBody},
		{"略小于正文", 9, 10, types.FontSizeBody},
		{"小标题", 11.5, 10, types.FontSizeSubhead},
		{"大标题", 18, 10, types.FontSizeHeadline},
		{"基准缺失时退回正文", 18, 0, types.FontSizeBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, bucketFor(tt.size, tt.body))
		})
	}
}

func TestIsBoldFont(t *testing.T) {
	assert.True(t, isBoldFont("Helvetica-Bold"))
	assert.True(t, isBoldFont("NotoSans-SemiBold"))
	assert.True(t, isBoldFont("Arial-Black"))
	assert.False(t, isBoldFont("Times-Roman"))
}

// TestAssembleBlocksReadingOrder 块序必须是自上而下、行带内自左向右
func TestAssembleBlocksReadingOrder(t *testing.T) {
	frags := []fragment{
		// 故意乱序给入
		{page: 0, text: "EXPERIENCE", font: "Helvetica-Bold", fontSize: 12, x: 50, y: 700, w: 80},
		{page: 0, text: "JOHN", font: "Helvetica-Bold", fontSize: 18, x: 50, y: 760, w: 40},
		{page: 0, text: "Acme Corp", font: "Helvetica", fontSize: 10, x: 50, y: 680, w: 60},
		{page: 0, text: "DOE", font: "Helvetica-Bold", fontSize: 18, x: 95, y: 760, w: 30},
	}

	blocks := assembleBlocks(frags, 10, defaultLineTolerance, defaultGapFactor)
	require.Len(t, blocks, 3)

	assert.Equal(t, "JOHN DOE", blocks[0].Text)
	assert.Equal(t, "EXPERIENCE", blocks[1].Text)
	assert.Equal(t, "Acme Corp", blocks[2].Text)

	assert.Equal(t, types.FontSizeHeadline, blocks[0].Style.FontSizeBucket)
	assert.True(t, blocks[0].Style.IsBold)
	assert.Equal(t, types.FontSizeSubhead, blocks[1].Style.FontSizeBucket)
	assert.Equal(t, types.FontSizeBody, blocks[2].Style.FontSizeBucket)
	assert.False(t, blocks[2].Style.IsBold)
}

// TestAssembleBlocksColumnGap 行带内的大间距要断成独立块（多栏布局）
func TestAssembleBlocksColumnGap(t *testing.T) {
	frags := []fragment{
		{page: 0, text: "jdoe@x.com", font: "Helvetica", fontSize: 10, x: 50, y: 700, w: 70},
		{page: 0, text: "+1 5551234567", font: "Helvetica", fontSize: 10, x: 400, y: 700, w: 90},
	}

	blocks := assembleBlocks(frags, 10, defaultLineTolerance, defaultGapFactor)
	require.Len(t, blocks, 2)
	assert.Equal(t, "jdoe@x.com", blocks[0].Text)
	assert.Equal(t, "+1 5551234567", blocks[1].Text)
}

// TestAssembleBlocksMultiPage 页序优先于页内坐标
func TestAssembleBlocksMultiPage(t *testing.T) {
	frags := []fragment{
		{page: 1, text: "second page", font: "Helvetica", fontSize: 10, x: 50, y: 760, w: 80},
		{page: 0, text: "first page bottom", font: "Helvetica", fontSize: 10, x: 50, y: 40, w: 110},
	}

	blocks := assembleBlocks(frags, 10, defaultLineTolerance, defaultGapFactor)
	require.Len(t, blocks, 2)
	assert.Equal(t, "first page bottom", blocks[0].Text)
	assert.Equal(t, 0, blocks[0].Page)
	assert.Equal(t, "second page", blocks[1].Text)
	assert.Equal(t, 1, blocks[1].Page)
}
