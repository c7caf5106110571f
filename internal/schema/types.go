// Copyright (c) 2026 Noriva. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import (
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"
)

// # Semantic Types

// Type is the semantic type of a field. It selects the validator and the
// storage column descriptor from the static tables below.
type Type int

const (
	// TypeID is an opaque identifier (UUIDv7 in practice).
	TypeID Type = iota

	// TypeString is a short single-line string (max 255 characters).
	TypeString

	// TypeText is a long free-form string.
	TypeText

	// TypeEmail is an RFC 5322 address.
	TypeEmail

	// TypeBoolean is a true/false flag.
	TypeBoolean

	// TypeInteger is a whole number.
	TypeInteger

	// TypeTimestamp is a point in time.
	TypeTimestamp

	// TypeSecret is a write-only credential (stored as a hash, never described).
	TypeSecret
)

// String returns the lowercase name of the semantic type.
func (t Type) String() string {
	switch t {
	case TypeID:
		return "id"
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeEmail:
		return "email"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeTimestamp:
		return "timestamp"
	case TypeSecret:
		return "secret"
	default:
		return "unknown"
	}
}

// # Validator Table

// Validator checks a candidate value before it is assigned to a field.
//
// Validators are pure: they never mutate or coerce the value. A non-nil
// return means the assignment must be rejected.
type Validator func(value any) error

const (
	maxStringLen = 255
	maxTextLen   = 65535
)

// validators maps each semantic type to its validator. The table is resolved
// once at registration time, not looked up per call.
var validators = map[Type]Validator{
	TypeID:        validateID,
	TypeString:    validateString,
	TypeText:      validateText,
	TypeEmail:     validateEmail,
	TypeBoolean:   validateBoolean,
	TypeInteger:   validateInteger,
	TypeTimestamp: validateTimestamp,
	TypeSecret:    validateSecret,
}

func validateID(value any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return fmt.Errorf("expected non-empty id string, got %T", value)
	}
	return nil
}

func validateString(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if utf8.RuneCountInString(s) > maxStringLen {
		return fmt.Errorf("string exceeds %d characters", maxStringLen)
	}
	return nil
}

func validateText(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if utf8.RuneCountInString(s) > maxTextLen {
		return fmt.Errorf("text exceeds %d characters", maxTextLen)
	}
	return nil
}

func validateEmail(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	return nil
}

func validateBoolean(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

func validateInteger(value any) error {
	switch n := value.(type) {
	case int, int32, int64:
		return nil
	case float64:
		// JSON numbers decode as float64. Accept only integral values.
		if n != float64(int64(n)) {
			return fmt.Errorf("expected whole number, got %v", n)
		}
		return nil
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

func validateTimestamp(value any) error {
	switch value.(type) {
	case time.Time:
		return nil
	default:
		return fmt.Errorf("expected timestamp, got %T", value)
	}
}

func validateSecret(value any) error {
	s, ok := value.(string)
	if !ok || s == "" {
		return fmt.Errorf("expected non-empty secret string, got %T", value)
	}
	return nil
}

// # Column Table

// Column is the storage descriptor for a semantic type.
type Column struct {
	// SQLType is the PostgreSQL column type used for fields of this type.
	SQLType string
}

// columns maps each semantic type to its storage column descriptor.
var columns = map[Type]Column{
	TypeID:        {SQLType: "UUID"},
	TypeString:    {SQLType: "VARCHAR(255)"},
	TypeText:      {SQLType: "TEXT"},
	TypeEmail:     {SQLType: "VARCHAR(255)"},
	TypeBoolean:   {SQLType: "BOOLEAN"},
	TypeInteger:   {SQLType: "BIGINT"},
	TypeTimestamp: {SQLType: "TIMESTAMPTZ"},
	TypeSecret:    {SQLType: "VARCHAR(255)"},
}
