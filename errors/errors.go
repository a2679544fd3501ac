package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies how a failed submission attempt is reported. The kind only
// changes how the message is built; every kind ends the attempt.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindServer
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// GenericServerMessage is shown when a non-2xx response carries no detail.
const GenericServerMessage = "Server error"

type AppError struct {
	Kind    Kind   `json:"-"`
	Code    int    `json:"-"`
	Message string `json:"detail"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports input that was missing or empty. It never reaches the network.
func Validation(op, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    http.StatusBadRequest,
		Message: message,
		Op:      op,
	}
}

// Server reports a non-2xx response. An empty detail falls back to GenericServerMessage.
func Server(op string, code int, detail string) *AppError {
	if detail == "" {
		detail = GenericServerMessage
	}
	return &AppError{
		Kind:    KindServer,
		Code:    code,
		Message: detail,
		Op:      op,
	}
}

// Transport reports a network or decoding failure, using the failure's own description.
func Transport(op string, err error) *AppError {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{
		Kind:    KindTransport,
		Code:    http.StatusBadGateway,
		Message: msg,
		Op:      op,
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or 0.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
