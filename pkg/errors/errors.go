package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Kind是稳定的字符串标识（如INSUFFICIENT_STOCK），便于调用方按类型分支处理
// 3. Details携带结构化上下文（当前库存、请求数量等），客户端据此渲染具体提示
// 4. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Code    int                    `json:"code"`              // 业务错误码
	Kind    string                 `json:"kind,omitempty"`    // 错误类型标识
	Message string                 `json:"message"`           // 用户友好的错误提示
	Details map[string]interface{} `json:"details,omitempty"` // 结构化错误详情
	Err     error                  `json:"-"`                 // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配
// 预定义错误附加Details后会生成新实例，errors.Is(err, ErrXxx)仍然成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails 复制一份错误并附加详情，不修改预定义错误本身
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	merged := make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Details: merged,
		Err:     e.Err,
	}
}

// WithMessage 复制一份错误并替换提示信息
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithCause 复制一份错误并挂上内部原因
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的AppError
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Kind:    KindInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Kind:    KindInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）
// 每种错误类型独占一个错误码，errors.Is按错误码匹配

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期
	ErrCodeForbidden    = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound                    = 40400 // 资源不存在（通用）
	ErrCodeBookNotFound                = 40402 // 图书不存在
	ErrCodeSupplierNotFound            = 40405 // 供应商不存在
	ErrCodeTransactionNotFound         = 40406 // 交易记录不存在
	ErrCodeOriginalTransactionNotFound = 40407 // 原销售记录不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError          = 40000 // 业务错误（通用）
	ErrCodeInsufficientStock      = 40001 // 库存不足
	ErrCodeISBNDuplicate          = 40004 // ISBN已存在
	ErrCodeDuplicateEntry         = 40009 // 重复记录（通用）
	ErrCodeBookInactive           = 40010 // 图书已下架
	ErrCodeExcessiveReturn        = 40011 // 退货数量超过原销售数量
	ErrCodeCannotVoidOld          = 40012 // 只能作废当天交易
	ErrCodeVoidFailed             = 40013 // 作废失败
	ErrCodeAlreadyVoided          = 40014 // 交易已作废
	ErrCodeVersionConflict        = 40015 // 数据已被修改
	ErrCodeReturnBookMismatch     = 40016 // 退货图书与原销售不一致
	ErrCodeIdempotencyKeyConflict = 40017 // 幂等键已被其他请求使用
	ErrCodeSupplierAlreadyActive  = 40018 // 供应商已是启用状态

	// 限流（42900）
	ErrCodeRateLimited = 42900 // 请求过于频繁

	// 参数错误（40900-40999）
	ErrCodeInvalidParams    = 40900 // 参数错误
	ErrCodeBindError        = 40901 // 参数绑定失败
	ErrCodeInvalidQuantity  = 40902 // 数量非法
	ErrCodeInvalidPrice     = 40903 // 价格非法
	ErrCodeMissingBook      = 40904 // 缺少图书
	ErrCodeMissingSupplier  = 40905 // 缺少供应商
	ErrCodeMissingReference = 40906 // 缺少原交易
	ErrCodeInvalidDateRange = 40907 // 日期范围非法
	ErrCodeInvalidISBN      = 40908 // ISBN格式不正确
)

// 错误类型标识
const (
	KindInternal      = "INTERNAL"
	KindDatabaseError = "DATABASE_ERROR"
	KindRedisError    = "REDIS_ERROR"
	KindUnauthorized  = "UNAUTHORIZED"
	KindInvalidToken  = "INVALID_TOKEN"
	KindTokenExpired  = "TOKEN_EXPIRED"
	KindForbidden     = "FORBIDDEN"
	KindNotFound      = "NOT_FOUND"
	KindRateLimited   = "RATE_LIMITED"
	KindInvalidParams = "INVALID_PARAMS"
	KindBindError     = "BIND_ERROR"
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, KindInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, KindDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, KindRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized = New(ErrCodeUnauthorized, KindUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, KindInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, KindTokenExpired, "Token已过期")
	ErrForbidden    = New(ErrCodeForbidden, KindForbidden, "无权限访问")

	// 资源不存在
	ErrNotFound = New(ErrCodeNotFound, KindNotFound, "资源不存在")

	// 限流
	ErrRateLimited = New(ErrCodeRateLimited, KindRateLimited, "请求过于频繁，请稍后再试")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, KindInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, KindBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}
