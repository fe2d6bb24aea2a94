package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode 调用方可分支处理的错误码
type ErrorCode string

const (
	CodeUnsupportedFormat   ErrorCode = "unsupported_format"
	CodeLegacyFileTooLarge  ErrorCode = "legacy_file_too_large"
	CodeWorkbookUnreadable  ErrorCode = "workbook_unreadable"
	CodeHeaderNotFound      ErrorCode = "header_not_found"
	CodeTemplateInvalid     ErrorCode = "template_invalid"
	CodeRowConversionFailed ErrorCode = "row_conversion_failed"
	CodeBlobStoreFailure    ErrorCode = "blob_store_failure"
)

// ConvertError 转换错误
//
// Causes 保留逐级兜底尝试的失败原因，排查具体文件为何失败时
// 不需要加日志重跑。
type ConvertError struct {
	Code    ErrorCode
	Message string
	Causes  []string
}

// NewConvertError 创建转换错误
func NewConvertError(code ErrorCode, message string) *ConvertError {
	return &ConvertError{Code: code, Message: message}
}

// NewConvertErrorWithCauses 创建携带底层原因链的转换错误
func NewConvertErrorWithCauses(code ErrorCode, message string, causes []string) *ConvertError {
	return &ConvertError{Code: code, Message: message, Causes: causes}
}

// Error 实现 error 接口
func (e *ConvertError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Causes, "; "))
}

// AsConvertError 从错误链中提取 ConvertError
func AsConvertError(err error) (*ConvertError, bool) {
	var ce *ConvertError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
