package domain

import (
	"errors"
	"fmt"
)

// External systems the service talks to. Used as the System field of
// IntegrationError and as a log attribute.
const (
	SystemBoard     = "monday"
	SystemMessaging = "resend"
	SystemIdentity  = "supabase"
)

type ErrorKind string

const (
	KindConfiguration       ErrorKind = "configuration_error"
	KindUpstreamUnreachable ErrorKind = "upstream_unreachable"
	KindUpstreamRejected    ErrorKind = "upstream_rejected"
	KindPartialEnrollment   ErrorKind = "partial_enrollment_failure"
	KindUnexpectedResponse  ErrorKind = "unexpected_response"
)

// IntegrationError describes a failure talking to one of the external systems.
// Message is the short, user-safe text; Err carries the underlying cause.
type IntegrationError struct {
	Kind    ErrorKind
	System  string
	Message string
	Err     error
}

func (e *IntegrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.System, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.System, e.Kind, e.Message)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, so errors.Is(err, ErrUpstreamRejected)
// works for any system.
func (e *IntegrationError) Is(target error) bool {
	t, ok := target.(*IntegrationError)
	if !ok {
		return false
	}
	return t.System == "" && t.Message == "" && t.Kind == e.Kind
}

var (
	ErrConfiguration       = &IntegrationError{Kind: KindConfiguration}
	ErrUpstreamUnreachable = &IntegrationError{Kind: KindUpstreamUnreachable}
	ErrUpstreamRejected    = &IntegrationError{Kind: KindUpstreamRejected}
	ErrUnexpectedResponse  = &IntegrationError{Kind: KindUnexpectedResponse}
)

// Identity provider outcomes the handlers need to tell apart.
var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

func NewConfigurationError(system, message string) *IntegrationError {
	return &IntegrationError{Kind: KindConfiguration, System: system, Message: message}
}

func NewUnreachableError(system string, err error) *IntegrationError {
	return &IntegrationError{
		Kind:    KindUpstreamUnreachable,
		System:  system,
		Message: fmt.Sprintf("Could not reach %s", system),
		Err:     err,
	}
}

func NewRejectedError(system, message string, err error) *IntegrationError {
	return &IntegrationError{Kind: KindUpstreamRejected, System: system, Message: message, Err: err}
}

func NewUnexpectedResponseError(system, message string) *IntegrationError {
	return &IntegrationError{Kind: KindUnexpectedResponse, System: system, Message: message}
}

// KindOf returns the integration error kind carried by err, or "" when err is
// not an integration failure.
func KindOf(err error) ErrorKind {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// MessageOf returns the user-safe message carried by err, or "".
func MessageOf(err error) string {
	var ie *IntegrationError
	if errors.As(err, &ie) {
		return ie.Message
	}
	return ""
}
