// Package apperr 定义网关统一的错误分类。
// 适配器返回最具体的错误类型，聚合器按数据源记录后继续，处理器按类型映射 HTTP 状态码。
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"unicode/utf8"
)

// Kind 错误类型
type Kind int

const (
	// KindInternal 编解码或 I/O 失败
	KindInternal Kind = iota
	// KindNotFound 上游无对应合约或日期的数据
	KindNotFound
	// KindParse 响应格式异常或结构漂移
	KindParse
	// KindUpstreamStatus 上游返回非 2xx
	KindUpstreamStatus
	// KindUpstreamTimeout 请求超时
	KindUpstreamTimeout
	// KindUpstreamBlocked 上游封禁（403/412/456 或封禁提示文本）
	KindUpstreamBlocked
	// KindBadInput 调用方参数非法
	KindBadInput
)

// maxExcerptLen 错误消息中上游片段的最大字节数
const maxExcerptLen = 200

// String 返回类型名称
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindParse:
		return "ParseError"
	case KindUpstreamStatus:
		return "UpstreamStatus"
	case KindUpstreamTimeout:
		return "UpstreamTimeout"
	case KindUpstreamBlocked:
		return "UpstreamBlocked"
	case KindBadInput:
		return "BadInput"
	default:
		return "Internal"
	}
}

// Error 网关错误
type Error struct {
	// Kind 错误类型
	Kind Kind
	// Msg 面向调用方的消息
	Msg string
	// StatusCode 上游 HTTP 状态码（仅 UpstreamStatus/UpstreamBlocked 有值）
	StatusCode int
	// Err 底层错误
	Err error
}

// Error 实现 error 接口
// 仅返回 Msg，底层错误通过 Unwrap 获取，保证响应消息稳定
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error { return e.Err }

// New 创建指定类型的错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap 包装底层错误
// 参数 kind: 错误类型
// 参数 err: 底层错误
// 参数 format: 消息格式
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// NotFound 创建 NotFound 错误
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// BadInput 创建 BadInput 错误
func BadInput(format string, args ...any) *Error {
	return New(KindBadInput, fmt.Sprintf(format, args...))
}

// Internal 创建 Internal 错误
func Internal(err error, format string, args ...any) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// Parse 创建解析错误
// 参数 msg: 错误描述
// 参数 excerpt: 上游响应片段，超过 200 字节会被截断
func Parse(msg string, excerpt []byte) *Error {
	e := &Error{Kind: KindParse, Msg: msg}
	if len(excerpt) > 0 {
		e.Msg = fmt.Sprintf("%s (片段: %s)", msg, Truncate(excerpt))
	}
	return e
}

// Status 根据上游状态码创建错误
// 403/412/456 归为 UpstreamBlocked，其余为 UpstreamStatus
func Status(source string, code int) *Error {
	if IsBlockedStatus(code) {
		return &Error{
			Kind:       KindUpstreamBlocked,
			Msg:        fmt.Sprintf("%s 访问被拒绝(%d)，可能触发了反爬限制，请稍后重试", source, code),
			StatusCode: code,
		}
	}
	return &Error{
		Kind:       KindUpstreamStatus,
		Msg:        fmt.Sprintf("%s 返回异常状态码: %d", source, code),
		StatusCode: code,
	}
}

// Blocked 创建封禁错误（用于封禁提示文本）
func Blocked(format string, args ...any) *Error {
	return New(KindUpstreamBlocked, fmt.Sprintf(format, args...))
}

// Transport 将网络层错误归类
// 超时与取消归为 UpstreamTimeout，其余为 Internal
func Transport(source string, err error) *Error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return Wrap(KindUpstreamTimeout, err, "请求 %s 超时", source)
	}
	if errors.Is(err, context.Canceled) {
		return Wrap(KindUpstreamTimeout, err, "请求 %s 已取消", source)
	}
	return Wrap(KindInternal, err, "请求 %s 失败", source)
}

// IsBlockedStatus 判断状态码是否表示封禁
func IsBlockedStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusPreconditionFailed || code == 456
}

// KindOf 获取错误链中的错误类型
// 非 *Error 的错误视为 Internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误链是否属于指定类型
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus 错误类型到 HTTP 状态码的映射
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindBadInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamBlocked:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Truncate 截断上游片段用于日志与错误消息
// 按 UTF-8 边界截断，避免产生非法字符
func Truncate(b []byte) string {
	if len(b) <= maxExcerptLen {
		return string(b)
	}
	cut := maxExcerptLen
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut]) + "..."
}

// AsNotFound 将上游 404 转为 NotFound，其余错误原样返回
// 交易所对非交易日的文件请求通常返回 404
func AsNotFound(err error, format string, args ...any) error {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindUpstreamStatus && e.StatusCode == http.StatusNotFound {
		return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...), StatusCode: e.StatusCode, Err: err}
	}
	return err
}
