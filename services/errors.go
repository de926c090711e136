package services

import "fmt"

// 错误码对照：4xx 归因于调用方，5xx 归因于网关/校验失败。
const (
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeNotFound              = "NOT_FOUND"
	CodeSessionNotFound       = "SESSION_NOT_FOUND"
	CodeSizeMismatch          = "SIZE_MISMATCH"
	CodeQuotaExceeded         = "QUOTA_EXCEEDED"
	CodeVerificationFailed    = "VERIFICATION_FAILED"
	CodeDropExpired           = "DROP_EXPIRED"
	CodeLoginRequired         = "LOGIN_REQUIRED"
	CodeWrongPassword         = "WRONG_PASSWORD"
	CodeDownloadLimitExceeded = "DOWNLOAD_LIMIT_EXCEEDED"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeGatewayError          = "GATEWAY_ERROR"
	CodeInternalError         = "INTERNAL_ERROR"
)

type AppError struct {
	HTTPCode int
	Code     string
	Message  string
	Data     interface{}
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, code string, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Code: code, Message: message, Err: err}
}

func newAppErrorWithData(httpCode int, code string, message string, data interface{}, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Code: code, Message: message, Data: data, Err: err}
}

// ErrorCode 取出结构化错误码，非 AppError 一律视为内部错误。
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternalError
}
