package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

const (
	MsgInvalidLogin = "Invalid Login"
	MsgNotActivated = "Your account is not activated yet"
	MsgInvalidToken = "Invalid Token"
	MsgAuthRequired = "Authentication required"
)

// AuthenticationError carries a message that is safe to show to the caller.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

func NewAuthenticationError(msg string) *AuthenticationError {
	return &AuthenticationError{Message: msg}
}

type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func required(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields, Reason: "required fields are empty"}
}
