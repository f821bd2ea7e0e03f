package domain

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoAPIKeys     = errors.New("no API keys configured")
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrRuleConfig    = errors.New("rule configuration error")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound      = "RESOURCE_NOT_FOUND"
	ErrCodeResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeValidationError       = "VALIDATION_ERROR"
	ErrCodeRuleConfiguration     = "RULE_CONFIGURATION_ERROR"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// ConfigurationError means a rule definition itself is broken: it names a
// field no record type exposes, or its parameters are inconsistent with its
// evaluation type. It must surface to the administrator rather than be
// folded into a green/red status, since any computed result would be
// meaningless.
type ConfigurationError struct {
	RuleCode string
	Field    string
	Reason   string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("rule %s: field %q: %s", e.RuleCode, e.Field, e.Reason)
	}
	return fmt.Sprintf("rule %s: %s", e.RuleCode, e.Reason)
}

// Unwrap lets errors.Is(err, ErrRuleConfig) match.
func (e *ConfigurationError) Unwrap() error {
	return ErrRuleConfig
}

// APIError represents an error response from the API.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}
