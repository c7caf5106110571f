// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Noriva.

It provides a rich error type that bridges the gap between the record engine's
permission/validation faults and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Diagnostics: Optional structured data (field name, missing role) attached per fault.
  - Mapping: Explicit mapping from AppError to HTTP-style status codes.

Every error that leaves the engine is wrapped as an [AppError] to ensure
consistent API responses. Raw driver errors never reach callers.
*/
package apperr

import (
	"errors"
	"net/http"
)

// Engine-specific status codes that have no net/http constant.
//
// These extend the standard 4xx space so clients can distinguish a missing
// parameter from a rejected value without parsing messages.
const (
	StatusMissingRequiredParameter = 441
	StatusOutOfRange               = 442
	StatusPasswordIncorrect        = 454
)

// AppError is the canonical error type for the Noriva engine.
//
// It carries an HTTP-style status code, a machine-readable code, a client-safe
// message, and optional structured diagnostic data.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "NOT_FOUND", "CONFLICT").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Data holds structured diagnostics (offending field, missing role).
	Data map[string]any `json:"data,omitempty"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Record Faults

// MissingRequiredParameter creates a 441 [AppError] for an absent or empty
// required field. The field name is carried in Data for the client.
func MissingRequiredParameter(field string) *AppError {
	return &AppError{
		Code:       "MISSING_REQUIRED_PARAMETER",
		Message:    "Required parameter is missing: " + field,
		HTTPStatus: StatusMissingRequiredParameter,
		Data:       map[string]any{"field": field},
	}
}

// OutOfRange creates a 442 [AppError] for a value rejected by a field's
// validator or enum constraint.
func OutOfRange(field string) *AppError {
	return &AppError{
		Code:       "OUT_OF_RANGE",
		Message:    "Value is out of range for: " + field,
		HTTPStatus: StatusOutOfRange,
		Data:       map[string]any{"field": field},
	}
}

// Conflict creates a 409 [AppError] for unique-constraint violations.
func Conflict(field string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    "Value is already taken: " + field,
		HTTPStatus: http.StatusConflict,
		Data:       map[string]any{"field": field},
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // Returns "User not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// # Permission Faults

// Forbidden creates a 403 [AppError] for a failed role or ownership check.
// The missing role, when known, is carried in Data.
func Forbidden(role string) *AppError {
	e := &AppError{
		Code:       "FORBIDDEN",
		Message:    "Insufficient permissions",
		HTTPStatus: http.StatusForbidden,
	}
	if role != "" {
		e.Data = map[string]any{"role": role}
	}
	return e
}

// SessionExpired creates a 401 [AppError] for a missing or invalidated session.
func SessionExpired() *AppError {
	return &AppError{
		Code:       "SESSION_EXPIRED",
		Message:    "Session is missing or expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PasswordIncorrect creates a 454 [AppError] for a failed credential check.
func PasswordIncorrect() *AppError {
	return &AppError{
		Code:       "PASSWORD_INCORRECT",
		Message:    "Password is incorrect",
		HTTPStatus: StatusPasswordIncorrect,
	}
}

// # Infrastructure Faults

// CouldNotConnect creates a 504 [AppError] when the cache or store is
// unreachable. The cause is stored for logging but never sent to the client.
func CouldNotConnect(cause error) *AppError {
	return &AppError{
		Code:       "COULD_NOT_CONNECT",
		Message:    "A backing service is unreachable",
		HTTPStatus: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// Unauthorized creates a 401 [AppError] for malformed or absent credentials.
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsCode reports whether err is an [*AppError] with the given code.
func IsCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
