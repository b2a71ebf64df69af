package loader

import (
	"context"

	"resume-analyzer-go/internal/types"
)

// DocumentLoader 文档加载器接口
// 把PDF字节流转换为按阅读序排列的文本块，除纯转换外无任何副作用
type DocumentLoader interface {
	// Load 从字节流提取文本块
	// 字节流不是合法PDF、或所有页面均无可提取文本时返回ErrUnreadableDocument；
	// 个别纯图片页不算错误，只是不贡献文本块
	Load(ctx context.Context, data []byte) ([]types.TextBlock, error)

	// Version 返回加载器版本标识，记录在处理元数据中
	Version() string
}
