package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	KindUpload ErrorKind = iota
	KindProvider
	KindTimeout
	KindEngine
	KindValidation
	KindConfig
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindUpload:
		return "Upload"
	case KindProvider:
		return "Provider"
	case KindTimeout:
		return "Timeout"
	case KindEngine:
		return "Engine"
	case KindValidation:
		return "Validation"
	case KindConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// Error is the structured error carried across the pipeline. Kind determines
// how callers react: upload/provider/timeout abort the analysis step,
// engine/validation degrade to fallback clips at the per-chapter level.
type Error struct {
	Kind    ErrorKind
	Message string
	Context map[string]any
	Cause   error
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, kind ErrorKind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message)}

	if len(e.Context) > 0 {
		ctxParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}
