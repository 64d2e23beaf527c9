package apperr

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
// Operational errors carry a safe message for the caller; non-operational
// ones (500) only ever expose a generic message, the cause stays in logs.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Operational reports whether the error belongs to the expected taxonomy.
// Anything mapped to a 5xx is treated as non-operational.
func (e *AppError) Operational() bool {
	return e.HTTPStatus < http.StatusInternalServerError
}

// WithDetail devuelve una COPIA del error con detalle adicional,
// para no mutar las variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una COPIA del error con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// FromError intenta convertir un error genérico en un AppError.
// Si no lo es, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

// Is permite comparar contra los errores base con errors.Is aunque la
// instancia lleve Detail o Cause (las copias comparten Code).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func badRequest(code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: http.StatusBadRequest}
}

// Errores predefinidos. Los mensajes de 401 son deliberadamente idénticos
// entre causas distintas para no filtrar información al cliente.
var (
	ErrBadRequest = badRequest("BAD_REQUEST", "the request is malformed or missing required fields")

	ErrInvalidJSON = badRequest("INVALID_JSON", "the request body is not valid JSON")

	ErrWeakPassword = badRequest("WEAK_PASSWORD",
		"password must be at least 8 characters and contain uppercase, lowercase, digit and special character")

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "invalid credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "you do not have permission to perform this action",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "the requested resource was not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "a user with this email already exists",
		HTTPStatus: http.StatusConflict,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "an internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
	}
)
