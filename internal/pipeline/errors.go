package pipeline

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrLoadDocumentFailed = errors.New("加载文档失败")
	ErrRatingFailed       = errors.New("档案评分失败")
	ErrProcessCancelled   = errors.New("文档处理被取消")
)

// ProcessError 包含详细错误信息的自定义错误
type ProcessError struct {
	DocumentUUID string
	Op           string
	BaseErr      error
	Cause        error
}

func (e *ProcessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (操作:%s, UUID:%s): %s", e.BaseErr, e.Op, e.DocumentUUID, e.Cause)
	}
	return fmt.Sprintf("%s (操作:%s, UUID:%s)", e.BaseErr, e.Op, e.DocumentUUID)
}

func (e *ProcessError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ProcessError) Is(target error) bool {
	if errors.Is(e.BaseErr, target) {
		return true
	}
	return e.Cause != nil && errors.Is(e.Cause, target)
}

// 错误构造函数
func NewLoadError(uuid string, cause error) error {
	return &ProcessError{
		DocumentUUID: uuid,
		Op:           "load",
		BaseErr:      ErrLoadDocumentFailed,
		Cause:        cause,
	}
}

func NewRateError(uuid string, cause error) error {
	return &ProcessError{
		DocumentUUID: uuid,
		Op:           "rate",
		BaseErr:      ErrRatingFailed,
		Cause:        cause,
	}
}

func NewCancelledError(uuid, op string, cause error) error {
	return &ProcessError{
		DocumentUUID: uuid,
		Op:           op,
		BaseErr:      ErrProcessCancelled,
		Cause:        cause,
	}
}
