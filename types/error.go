package types

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode represents a unified error code across the library.
type ErrorCode string

// Generation error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrInvalidSize    ErrorCode = "INVALID_SIZE"
	ErrAuthentication ErrorCode = "AUTHENTICATION"
	ErrQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrModelNotFound  ErrorCode = "MODEL_NOT_FOUND"
	ErrNetwork        ErrorCode = "NETWORK"
	ErrTimeout        ErrorCode = "TIMEOUT"
	ErrUpstreamError  ErrorCode = "UPSTREAM_ERROR"
)

// Task lifecycle error codes
const (
	ErrTaskFailed   ErrorCode = "TASK_FAILED"
	ErrTaskCanceled ErrorCode = "TASK_CANCELED"
	ErrTaskTimeout  ErrorCode = "TASK_TIMEOUT"
	ErrPollTimeout  ErrorCode = "POLL_TIMEOUT"
	ErrDecodeFailed ErrorCode = "DECODE_FAILED"
)

//非致命环节的错误码（不影响生成结果本身）
const (
	ErrUploadFailed ErrorCode = "UPLOAD_FAILED"
	ErrNotifyFailed ErrorCode = "NOTIFY_FAILED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	API        string    `json:"api,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithAPI sets the display name of the API the error came from.
func (e *Error) WithAPI(api string) *Error {
	e.API = api
	return e
}

// IsRetryable 判断错误是否可重试。
// *Error 按 Retryable 标记判断；裸传输层错误（net.Error、连接被拒、
// 超时取消）一律视为可重试的网络故障。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return IsNetworkError(err)
}

// IsNetworkError 判断错误是否为传输层网络故障（DNS、连接、读超时）。
// 业务层错误（HTTP 4xx/5xx 映射出的 *Error）不属于网络故障。
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrNetwork || e.Code == ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
