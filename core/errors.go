package core

import (
	"errors"
	"strconv"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）、模块（Module）与出错的操作名（Op）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf / pkg/errors 的包装
//
// 使用场景：
//   - Session 错误：INVALID_ARGUMENT, ALLOCATION_FAILURE, ENGINE_FAILURE
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "ENGINE_FAILURE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "native", "tensor", "store"）
	Op      string // 出错的操作（如 "ApplyUpdate"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Module != "" {
		msg = e.Module + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DomainError) Unwrap() error { return e.Err }

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果没有则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 引擎边界错误代码
	ErrorCodeInvalidArgument   = "INVALID_ARGUMENT"   // 参数/元数据不合法
	ErrorCodeAllocationFailure = "ALLOCATION_FAILURE" // 引擎返回空句柄/空张量
	ErrorCodeEngineFailure     = "ENGINE_FAILURE"     // 引擎返回非零状态码

	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
)

// 模块名称常量
const (
	ModuleCore        = "core"        // 数据模型
	ModuleNative      = "native"      // 引擎边界
	ModuleTensor      = "tensor"      // 模型张量
	ModuleBoost       = "boost"       // 循环提升
	ModuleInteraction = "interaction" // 交互排序
	ModuleStore       = "store"       // 存储模块
	ModuleConfig      = "config"      // 配置模块
)

// InvalidArgument 构造 INVALID_ARGUMENT 错误
func InvalidArgument(module, op, message string) *DomainError {
	return &DomainError{Module: module, Code: ErrorCodeInvalidArgument, Op: op, Message: message}
}

// AllocationFailure 构造 ALLOCATION_FAILURE 错误
func AllocationFailure(module, op string) *DomainError {
	return &DomainError{Module: module, Code: ErrorCodeAllocationFailure, Op: op, Message: "out of memory"}
}

// EngineFailure 构造 ENGINE_FAILURE 错误，status 为引擎返回的状态码
func EngineFailure(module, op string, status int64) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeEngineFailure,
		Op:      op,
		Message: "engine returned status " + strconv.FormatInt(status, 10),
	}
}

// IsInvalidArgument 检查错误是否为 INVALID_ARGUMENT
func IsInvalidArgument(err error) bool { return hasCode(err, ErrorCodeInvalidArgument) }

// IsAllocationFailure 检查错误是否为 ALLOCATION_FAILURE
func IsAllocationFailure(err error) bool { return hasCode(err, ErrorCodeAllocationFailure) }

// IsEngineFailure 检查错误是否为 ENGINE_FAILURE
func IsEngineFailure(err error) bool { return hasCode(err, ErrorCodeEngineFailure) }

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// OpOf 返回错误链中 DomainError 的操作名，没有则返回空串
func OpOf(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Op
	}
	return ""
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
