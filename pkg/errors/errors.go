package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于调用方判断错误类型（连接/查询/写入/删除，或具体业务错误）
// 2. Message是用户可读的操作描述，如"按书名查询图书失败: dune"
// 3. Err是底层驱动错误或领域错误，仅用于日志与errors.Is/As判断
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
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

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（不区分类别时使用）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// WrapCode 以指定错误码包装底层错误
func WrapCode(code int, err error, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// =========================================
// 存储层错误类别
// =========================================
// 数据访问契约只向调用方暴露四类可恢复错误：
// 连接错误、查询错误、写入错误、删除错误。
// 每一类都携带操作描述和底层原因。

// Connection 连接类错误（连接/断开/尚未连接）
func Connection(err error, message string) *AppError {
	return &AppError{Code: ErrCodeConnection, Message: message, Err: err}
}

// Connectionf 格式化连接类错误
func Connectionf(err error, format string, args ...interface{}) *AppError {
	return Connection(err, fmt.Sprintf(format, args...))
}

// Select 查询类错误
func Select(err error, message string) *AppError {
	return &AppError{Code: ErrCodeSelect, Message: message, Err: err}
}

// Selectf 格式化查询类错误
func Selectf(err error, format string, args ...interface{}) *AppError {
	return Select(err, fmt.Sprintf(format, args...))
}

// Insert 写入类错误
func Insert(err error, message string) *AppError {
	return &AppError{Code: ErrCodeInsert, Message: message, Err: err}
}

// Insertf 格式化写入类错误
func Insertf(err error, format string, args ...interface{}) *AppError {
	return Insert(err, fmt.Sprintf(format, args...))
}

// Delete 删除类错误
func Delete(err error, message string) *AppError {
	return &AppError{Code: ErrCodeDelete, Message: message, Err: err}
}

// Deletef 格式化删除类错误
func Deletef(err error, format string, args ...interface{}) *AppError {
	return Delete(err, fmt.Sprintf(format, args...))
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal   = 50000 // 内部错误
	ErrCodeConnection = 50010 // 存储连接错误
	ErrCodeSelect     = 50011 // 存储查询错误
	ErrCodeInsert     = 50012 // 存储写入错误
	ErrCodeDelete     = 50013 // 存储删除错误
	ErrCodeRedisError = 50002 // Redis错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 用户名或密码错误

	// 资源错误（40400-40499）
	ErrCodeNotFound     = 40400 // 资源不存在(通用)
	ErrCodeBookNotFound = 40402 // 图书不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError  = 40000 // 业务错误(通用)
	ErrCodeDuplicateEntry = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	ErrInternal   = New(ErrCodeInternal, "系统内部错误")
	ErrRedisError = New(ErrCodeRedisError, "缓存服务错误")

	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "用户名或密码错误")

	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// CodeOf 返回错误链上最外层AppError的错误码，非AppError返回0
// 存储层错误的最外层永远是类别码（ErrCodeSelect等），领域原因在内层
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// IsKind 判断错误最外层是否为指定类别
func IsKind(err error, code int) bool {
	return CodeOf(err) == code
}

// ClientCause 错误链上最内层的客户端错误（4xxxx），没有时返回nil
// 存储层把"图书不存在"之类的原因包在删除/写入类别里，HTTP状态码应以原因为准
func ClientCause(err error) *AppError {
	var found *AppError
	for err != nil {
		if e, ok := err.(*AppError); ok && e.Code >= 40000 && e.Code < 50000 {
			found = e
		}
		err = errors.Unwrap(err)
	}
	return found
}
