package loader

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	// ErrUnreadableDocument 字节流不是合法PDF或全文无可提取文本
	ErrUnreadableDocument = errors.New("无法读取文档")
)

// UnreadableDocumentError 包含失败细节的文档读取错误
type UnreadableDocumentError struct {
	URI    string // 资源标识（可为空）
	Reason string // 具体原因，用于上游展示
	Cause  error  // 底层解析错误（可为nil）
}

func (e *UnreadableDocumentError) Error() string {
	if e.URI != "" {
		return fmt.Sprintf("%s (URI:%s): %s", ErrUnreadableDocument, e.URI, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrUnreadableDocument, e.Reason)
}

func (e *UnreadableDocumentError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrUnreadableDocument
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *UnreadableDocumentError) Is(target error) bool {
	if target == ErrUnreadableDocument {
		return true
	}
	return e.Cause != nil && errors.Is(e.Cause, target)
}

// NewUnreadableError 错误构造函数
func NewUnreadableError(uri, reason string, cause error) error {
	return &UnreadableDocumentError{
		URI:    uri,
		Reason: reason,
		Cause:  cause,
	}
}
