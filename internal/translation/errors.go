package translation

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured       = errors.New("not configured")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyInput          = errors.New("empty input")
	ErrInputTooLong        = errors.New("input too long")
	ErrTransport           = errors.New("transport error")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrNoRoute             = errors.New("no route")
)

var kinds = []error{
	ErrNotConfigured,
	ErrUnsupportedLanguage,
	ErrEmptyInput,
	ErrInputTooLong,
	ErrTransport,
	ErrMalformedResponse,
	ErrNoRoute,
}

var kindNames = map[error]string{
	ErrNotConfigured:       "not_configured",
	ErrUnsupportedLanguage: "unsupported_language",
	ErrEmptyInput:          "empty_input",
	ErrInputTooLong:        "input_too_long",
	ErrTransport:           "transport",
	ErrMalformedResponse:   "malformed_response",
	ErrNoRoute:             "no_route",
}

// Error is a classified translation failure. Kind is one of the Err* sentinels.
type Error struct {
	Kind     error
	Provider string
	Message  string
	Params   map[string]any
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind error, provider string, params map[string]any, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Message:  fmt.Sprintf(format, args...),
		Params:   params,
	}
}

func wrapError(kind error, provider string, err error, format string, args ...any) *Error {
	e := newError(kind, provider, nil, format, args...)
	e.Err = err
	return e
}

// KindOf returns the sentinel classifying err, or nil when unclassified.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName returns the snake_case name of the kind classifying err.
func KindName(err error) string {
	if name, ok := kindNames[KindOf(err)]; ok {
		return name
	}
	return "internal"
}
