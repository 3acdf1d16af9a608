package config

import (
	"fmt"
	"strings"
)

// MissingConfigError reports a configuration file that does not exist.
type MissingConfigError struct {
	Path string
}

func (e MissingConfigError) Error() string {
	path := strings.TrimSpace(e.Path)
	if path == "" {
		return "configuration file not found"
	}
	return fmt.Sprintf("configuration file not found: %s", path)
}

// FieldError describes one invalid or missing configuration field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// ValidationError collects every field problem found in one configuration document.
type ValidationError struct {
	Kind   string
	Fields []FieldError
}

func (e ValidationError) Error() string {
	kind := strings.TrimSpace(e.Kind)
	if kind == "" {
		kind = "configuration"
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid %s", kind)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Error())
	}
	return fmt.Sprintf("invalid %s: %s", kind, strings.Join(parts, "; "))
}

// Has reports whether the named field is part of the error.
func (e ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func fieldError(kind, field, format string, args ...any) error {
	return ValidationError{
		Kind:   kind,
		Fields: []FieldError{{Field: field, Reason: fmt.Sprintf(format, args...)}},
	}
}
