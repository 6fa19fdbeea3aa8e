package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for HTTP 401 responses so callers can trigger
// session teardown. Match with errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// Kind classifies a gateway failure.
type Kind int

const (
	// KindNetwork: transport-level failure, no usable response.
	KindNetwork Kind = iota
	// KindAuth: the server rejected the bearer token (HTTP 401).
	KindAuth
	// KindDomain: the server answered with success:false and a message.
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindDomain:
		return "domain"
	}
	return "unknown"
}

// Error is a classified gateway failure. Domain errors carry the server's
// message verbatim.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s error: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("%s error (status %d)", e.Kind, e.Status)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, ErrUnauthorized) match auth errors.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Kind == KindAuth
}

func networkErr(err error) *Error {
	return &Error{Kind: KindNetwork, cause: err}
}

func authErr(message string) *Error {
	return &Error{Kind: KindAuth, Message: message, Status: 401}
}

func domainErr(status int, message string) *Error {
	if message == "" {
		message = "request failed"
	}
	return &Error{Kind: KindDomain, Message: message, Status: status}
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNetwork
}

// IsDomain reports whether err is a server-reported domain failure.
func IsDomain(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindDomain
}

// UserMessage extracts the server's human-readable message from a domain
// error, falling back to the error string.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
