package apperrors

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для вызывающей стороны
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindNotFound          Kind = "NOT_FOUND"
	KindPermission        Kind = "PERMISSION_DENIED"
	KindConflict          Kind = "CONFLICT"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindSelfBooking       Kind = "SELF_BOOKING"
	KindReconciliation    Kind = "RECONCILIATION_NEEDED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

type AppError struct {
	Kind    Kind           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails добавляет детали к ошибке
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *AppError {
	return New(KindValidation, message)
}

func NotFound(resource string) *AppError {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource))
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func Permission(message string) *AppError {
	return New(KindPermission, message)
}

func Conflict(message string) *AppError {
	return New(KindConflict, message)
}

func InvalidTransition(from, to string) *AppError {
	return New(KindInvalidTransition, fmt.Sprintf("cannot move appointment from %s to %s", from, to)).
		WithDetails(map[string]any{"from": from, "to": to})
}

func SelfBooking() *AppError {
	return New(KindSelfBooking, "mentors cannot book their own availability slot")
}

// Reconciliation сообщает, что компенсирующая запись не удалась и данные требуют сверки.
// cause - исходная ошибка операции (может быть nil), compensation - ошибка компенсации.
func Reconciliation(message string, cause, compensation error) *AppError {
	return &AppError{
		Kind:    KindReconciliation,
		Message: message,
		Err:     errors.Join(cause, compensation),
	}
}

func Internal(message string, err error) *AppError {
	return Wrap(err, KindInternal, message)
}

// KindOf возвращает вид первой AppError в цепочке, либо KindInternal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is проверяет вид ошибки с учётом обёрток
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
