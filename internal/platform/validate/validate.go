// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator for HTTP input payloads.
//
// # Architecture
//
// This package guards the REST surface — schema-level field validation lives
// in the record engine itself. The Validator reports the first failed rule as
// the matching engine fault (MISSING_REQUIRED_PARAMETER or OUT_OF_RANGE) so
// handlers and the engine speak one error taxonomy.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/noriva/internal/platform/apperr"
)

// uuidRegex matches a lowercase UUIDv4 or UUIDv7 string.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = outOfRange("body", "Invalid JSON payload")

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []*apperr.AppError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errs = append(v.errs, apperr.MissingRequiredParameter(field))
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.errs = append(v.errs, outOfRange(field, fmt.Sprintf("Maximum %d characters", max)))
	}
	return v
}

// MinLen fails if the Unicode character count is below min.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		v.errs = append(v.errs, outOfRange(field, fmt.Sprintf("Minimum %d characters", min)))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.errs = append(v.errs, outOfRange(field, fmt.Sprintf("Must be between %d and %d", min, max)))
	}
	return v
}

// Email fails if the value is not a valid RFC 5322 email address.
func (v *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		v.errs = append(v.errs, outOfRange(field, "Must be a valid email address"))
	}
	return v
}

// UUID fails if the value is not a valid UUID string (case-insensitive).
func (v *Validator) UUID(field, value string) *Validator {
	if !uuidRegex.MatchString(strings.ToLower(value)) {
		v.errs = append(v.errs, outOfRange(field, "Must be a valid UUID"))
	}
	return v
}

// OneOf fails if the value is not in the allowed set of strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errs = append(v.errs, outOfRange(field, fmt.Sprintf("Must be one of: %s", strings.Join(allowed, ", "))))
	return v
}

// Custom adds an out-of-range failure with a custom reason if the condition is true.
//
// # Example
//
//	v.Custom("score", score < 1 || score > 10, "Must be between 1 and 10")
func (v *Validator) Custom(field string, failed bool, reason string) *Validator {
	if failed {
		v.errs = append(v.errs, outOfRange(field, reason))
	}
	return v
}

// Err returns the first failed rule as an [*apperr.AppError], or nil if all
// rules passed.
//
// This is the only output method — call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs[0]
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// outOfRange builds an OUT_OF_RANGE fault carrying the rejection reason.
func outOfRange(field, reason string) *apperr.AppError {
	e := apperr.OutOfRange(field)
	e.Data["reason"] = reason
	return e
}
