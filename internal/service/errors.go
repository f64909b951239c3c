package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrConflict 与当前状态冲突
	ErrConflict = errors.New("conflict")
	// ErrValidation 请求参数不合法
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 未登录或凭证错误
	ErrUnauthorized = errors.New("unauthorized")
	// ErrGateway 支付网关调用失败
	ErrGateway = errors.New("payment gateway error")
	// ErrGatewayUnavailable 未配置支付网关
	ErrGatewayUnavailable = errors.New("payment gateway not configured")
)

// 冲突错误码，前端据此决定下一步（确认不兼容、换时段等）
const (
	CodeSlotTaken           = "slot_taken"
	CodeSlotUnavailable     = "slot_unavailable"
	CodeIncompatibleCharger = "incompatible_charger"
	CodePaymentState        = "payment_state"
	CodePaymentIncomplete   = "payment_incomplete"
	CodeEmailTaken          = "email_taken"
	CodeAlreadyReviewed     = "already_reviewed"
	CodeIdempotencyKey      = "idempotency_key_reused"
)

// ValidationError 字段校验错误
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// ConflictError 带错误码的冲突
type ConflictError struct {
	Code string
	Msg  string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func conflict(code, msg string) error {
	return &ConflictError{Code: code, Msg: msg}
}

// ConflictCode 提取冲突错误码
func ConflictCode(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

func notFound(resource, id string) error {
	return fmt.Errorf("%s %s: %w", resource, id, ErrNotFound)
}
