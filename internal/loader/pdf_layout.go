package loader

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

const (
	// 同一行带内允许的基线Y偏差（PDF用户空间单位）
	defaultLineTolerance = 2.0
	// 超过该倍数的水平间距视为新文本块的开始
	defaultGapFactor = 3.0
)

// LayoutPDFLoader 带版式信息的PDF加载器
// 逐字读取PDF文本片段及其字体和坐标，按行带聚合成文本块，
// 并根据字号分布推断每块的字号档位
type LayoutPDFLoader struct {
	lineTolerance float64
	gapFactor     float64
	logger        zerolog.Logger
}

// LayoutOption 版式加载器的配置选项
type LayoutOption func(*LayoutPDFLoader)

// WithLineTolerance 设置行带聚合的Y偏差容忍度
func WithLineTolerance(tolerance float64) LayoutOption {
	return func(l *LayoutPDFLoader) {
		if tolerance > 0 {
			l.lineTolerance = tolerance
		}
	}
}

// WithLayoutLogger 设置自定义日志记录器
func WithLayoutLogger(lg zerolog.Logger) LayoutOption {
	return func(l *LayoutPDFLoader) {
		l.logger = lg
	}
}

// NewLayoutPDFLoader 创建版式PDF加载器
func NewLayoutPDFLoader(options ...LayoutOption) *LayoutPDFLoader {
	l := &LayoutPDFLoader{
		lineTolerance: defaultLineTolerance,
		gapFactor:     defaultGapFactor,
		logger:        logger.WithComponent("loader.layout"),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Version 返回加载器版本标识
func (l *LayoutPDFLoader) Version() string {
	return "layout-v1"
}

// Load 从PDF字节流提取带版式元数据的文本块
func (l *LayoutPDFLoader) Load(ctx context.Context, data []byte) (blocks []types.TextBlock, err error) {
	startTime := time.Now()

	// 底层解析库在损坏的内容流上会panic，统一转换为ErrUnreadableDocument
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warn().Interface("panic", r).Msg("PDF解析过程发生panic，按不可读文档处理")
			blocks = nil
			err = NewUnreadableError("", "PDF内容流损坏", nil)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewUnreadableError("", "不是合法的PDF字节流", err)
	}

	var fragments []fragment
	pageCount := reader.NumPage()
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content := page.Content()
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue // 空白片段不参与聚合
			}
			fragments = append(fragments, fragment{
				page:     pageNum - 1,
				text:     t.S,
				font:     t.Font,
				fontSize: t.FontSize,
				x:        t.X,
				y:        t.Y,
				w:        t.W,
			})
		}
	}

	// 纯图片页合法，但全文无任何文本则判为不可读
	if len(fragments) == 0 {
		return nil, NewUnreadableError("", "全部页面均无可提取文本", nil)
	}

	bodySize := modalFontSize(fragments)
	blocks = assembleBlocks(fragments, bodySize, l.lineTolerance, l.gapFactor)

	l.logger.Debug().
		Int("pages", pageCount).
		Int("fragments", len(fragments)).
		Int("blocks", len(blocks)).
		Float64("body_font_size", bodySize).
		Dur("elapsed", time.Since(startTime)).
		Msg("PDF版式提取完成")

	return blocks, nil
}

// fragment 单个PDF文本片段及其版式属性
type fragment struct {
	page     int
	text     string
	font     string
	fontSize float64
	x, y, w  float64
}

// modalFontSize 计算出现频率最高的字号，作为正文字号基准
// 按0.5pt量化后统计，频率相同取较小字号（正文通常偏小）
func modalFontSize(fragments []fragment) float64 {
	counts := make(map[float64]int)
	for _, f := range fragments {
		q := quantizeSize(f.fontSize)
		counts[q] += len(f.text)
	}

	var best float64
	bestCount := -1
	for size, count := range counts {
		if count > bestCount || (count == bestCount && size < best) {
			best = size
			bestCount = count
		}
	}
	return best
}

func quantizeSize(size float64) float64 {
	return float64(int(size*2+0.5)) / 2
}

// bucketFor 根据正文字号基准划分字号档位
func bucketFor(size, bodySize float64) types.FontSizeBucket {
	if bodySize <= 0 {
		return types.FontSizeBody
	}
	switch {
	case size >= bodySize*1.3:
		return types.FontSizeHeadline
	case size >= bodySize*1.1:
		return types.FontSizeSubhead
	default:
		return types.FontSizeBody
	}
}

// isBoldFont 根据字体名判断是否粗体
func isBoldFont(font string) bool {
	lower := strings.ToLower(font)
	return strings.Contains(lower, "bold") ||
		strings.Contains(lower, "black") ||
		strings.Contains(lower, "heavy") ||
		strings.Contains(lower, "semibold")
}

// assembleBlocks 把片段聚合为阅读序文本块
// 先按页分组，页内按基线Y聚成行带（自上而下），行带内按X排序（自左向右）；
// 行带内水平间距过大处断开为独立文本块
func assembleBlocks(fragments []fragment, bodySize, lineTolerance, gapFactor float64) []types.TextBlock {
	byPage := make(map[int][]fragment)
	var pages []int
	for _, f := range fragments {
		if _, ok := byPage[f.page]; !ok {
			pages = append(pages, f.page)
		}
		byPage[f.page] = append(byPage[f.page], f)
	}
	sort.Ints(pages)

	var blocks []types.TextBlock
	for _, page := range pages {
		pageFrags := byPage[page]

		// PDF坐标原点在左下角，Y大者在上
		sort.SliceStable(pageFrags, func(i, j int) bool {
			if pageFrags[i].y != pageFrags[j].y {
				return pageFrags[i].y > pageFrags[j].y
			}
			return pageFrags[i].x < pageFrags[j].x
		})

		var line []fragment
		for _, f := range pageFrags {
			if len(line) == 0 || sameBand(line[0].y, f.y, lineTolerance) {
				line = append(line, f)
				continue
			}
			blocks = append(blocks, flushLine(line, bodySize, gapFactor)...)
			line = []fragment{f}
		}
		if len(line) > 0 {
			blocks = append(blocks, flushLine(line, bodySize, gapFactor)...)
		}
	}
	return blocks
}

func sameBand(y0, y1, tolerance float64) bool {
	d := y0 - y1
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// flushLine 把一个行带内的片段拆成一个或多个文本块
func flushLine(line []fragment, bodySize, gapFactor float64) []types.TextBlock {
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].x < line[j].x
	})

	var blocks []types.TextBlock
	var current []fragment
	for i, f := range line {
		if i == 0 {
			current = []fragment{f}
			continue
		}
		prev := line[i-1]
		gap := f.x - (prev.x + prev.w)
		// 以字号为比例尺衡量间距，多栏简历的栏间空隙会在这里断开
		if gap > prev.fontSize*gapFactor {
			blocks = append(blocks, buildBlock(current, bodySize))
			current = []fragment{f}
			continue
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		blocks = append(blocks, buildBlock(current, bodySize))
	}
	return blocks
}

// buildBlock 把一组连续片段合成一个文本块
func buildBlock(frags []fragment, bodySize float64) types.TextBlock {
	var sb strings.Builder
	maxSize := 0.0
	bold := true
	bbox := types.Rect{X0: frags[0].x, Y0: frags[0].y, X1: frags[0].x, Y1: frags[0].y}

	for i, f := range frags {
		if i > 0 {
			prev := frags[i-1]
			if f.x-(prev.x+prev.w) > prev.fontSize*0.15 {
				sb.WriteByte(' ') // 片段间有可见空隙时补空格
			}
		}
		sb.WriteString(f.text)

		if f.fontSize > maxSize {
			maxSize = f.fontSize
		}
		// 整块均为粗体字体才算粗体
		if !isBoldFont(f.font) {
			bold = false
		}

		if f.x < bbox.X0 {
			bbox.X0 = f.x
		}
		if f.x+f.w > bbox.X1 {
			bbox.X1 = f.x + f.w
		}
		if f.y < bbox.Y0 {
			bbox.Y0 = f.y
		}
		if f.y+f.fontSize > bbox.Y1 {
			bbox.Y1 = f.y + f.fontSize
		}
	}

	return types.TextBlock{
		Text: strings.TrimSpace(sb.String()),
		Page: frags[0].page,
		BBox: bbox,
		Style: types.TextStyle{
			FontSizeBucket: bucketFor(maxSize, bodySize),
			IsBold:         bold,
		},
	}
}
