package graphql

import (
	"context"
	"errors"

	"github.com/Skotchmaster/cms_admin/internal/logging"
	"github.com/Skotchmaster/cms_admin/internal/service"
)

const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// Error is returned from resolvers. graphql-go copies Extensions into the
// formatted response error.
type Error struct {
	Message string
	Code    string
	Fields  []string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Extensions() map[string]any {
	ext := map[string]any{"code": e.Code}
	if len(e.Fields) > 0 {
		ext["fields"] = e.Fields
	}
	return ext
}

func badInput(msg string, fields ...string) *Error {
	return &Error{Message: msg, Code: CodeBadUserInput, Fields: fields}
}

// toError maps service errors to client-facing GraphQL errors. Anything
// unrecognised is logged and hidden behind a generic message.
func toError(ctx context.Context, op string, err error) error {
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}

	var authErr *service.AuthenticationError
	if errors.As(err, &authErr) {
		return &Error{Message: authErr.Message, Code: CodeUnauthenticated}
	}

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return badInput(vErr.Error(), vErr.Fields...)
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return badInput(err.Error())
	case errors.Is(err, service.ErrForbidden):
		return &Error{Message: "Forbidden", Code: CodeForbidden}
	case errors.Is(err, service.ErrNotFound):
		return &Error{Message: err.Error(), Code: CodeNotFound}
	case errors.Is(err, service.ErrConflict):
		return &Error{Message: err.Error(), Code: CodeConflict}
	case errors.Is(err, service.ErrUnavailable):
		return &Error{Message: err.Error(), Code: CodeUnavailable}
	}

	logging.FromContext(ctx).Error(op+"_error", "status", 500, "reason", "unexpected error", "error", err)
	return &Error{Message: "Internal server error", Code: CodeInternal}
}
