package loader

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-analyzer-go/internal/logger"
	"resume-analyzer-go/internal/types"
)

// EinoPDFLoader 基于Eino PDF Parser的纯文本回退加载器
// 只产出按行切分的文本块，不带坐标和样式元数据；
// 用于版式加载器读不动的PDF（加密字体、非标准编码等）
type EinoPDFLoader struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	logger  zerolog.Logger
}

// EinoOption 纯文本加载器的配置选项
type EinoOption func(*EinoPDFLoader)

// WithEinoTimeout 设置单次解析超时
func WithEinoTimeout(timeout time.Duration) EinoOption {
	return func(e *EinoPDFLoader) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// WithEinoLogger 设置自定义日志记录器
func WithEinoLogger(lg zerolog.Logger) EinoOption {
	return func(e *EinoPDFLoader) {
		e.logger = lg
	}
}

// NewEinoPDFLoader 初始化Eino PDF回退加载器
// 配置为不按页面分割，以获取整个文档的连续文本
func NewEinoPDFLoader(ctx context.Context, options ...EinoOption) (*EinoPDFLoader, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, NewUnreadableError("", "创建Eino PDF解析器失败", err)
	}

	l := &EinoPDFLoader{
		parser:  p,
		timeout: 30 * time.Second,
		logger:  logger.WithComponent("loader.eino"),
	}
	for _, option := range options {
		option(l)
	}
	return l, nil
}

// Version 返回加载器版本标识
func (l *EinoPDFLoader) Version() string {
	return "eino-plaintext-v1"
}

// Load 提取纯文本并按行切分为无样式文本块
func (l *EinoPDFLoader) Load(ctx context.Context, data []byte) ([]types.TextBlock, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	docs, err := l.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithExtraMeta(map[string]interface{}{
			"loader_version": l.Version(),
		}),
	)
	if err != nil {
		l.logger.Warn().Err(err).Dur("elapsed", time.Since(startTime)).Msg("Eino PDF解析失败")
		return nil, NewUnreadableError("", "Eino解析器无法读取该PDF", err)
	}
	if len(docs) == 0 {
		return nil, NewUnreadableError("", "Eino解析器未返回任何文档", nil)
	}

	// 合并所有文档的内容（以防万一返回了多个）
	var fullContent strings.Builder
	for i, doc := range docs {
		fullContent.WriteString(doc.Content)
		if i < len(docs)-1 {
			fullContent.WriteString("\n")
		}
	}

	var blocks []types.TextBlock
	for _, rawLine := range strings.Split(fullContent.String(), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		// 无版式信息：页码记0、包围盒为零值、样式取正文默认
		blocks = append(blocks, types.TextBlock{
			Text: line,
			Page: 0,
		})
	}

	if len(blocks) == 0 {
		return nil, NewUnreadableError("", "全部页面均无可提取文本", nil)
	}

	l.logger.Debug().
		Int("blocks", len(blocks)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Eino纯文本提取完成")

	return blocks, nil
}
