package main

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
)

// Error is a lightweight constant-style error type.
type Error string

func (e Error) Error() string {
	return string(e)
}

// Pipeline error kinds. Stages are pure transformations, so none of these
// are retried; they propagate to the caller, which turns them into a
// structured failure without crashing the process.
const (
	KindNotFound     = "NotFound"
	KindInvalidInput = "InvalidInput"
	KindInternal     = "InternalError"
)

type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

func errNotFound(message string) error {
	return &CodedError{Code: KindNotFound, Message: message}
}

func errInvalidInput(message string) error {
	return &CodedError{Code: KindInvalidInput, Message: message}
}

// errKind classifies an error for the structured failure envelope.
// Anything unrecognized is an internal failure.
func errKind(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return KindInternal
}

// FileExist returns the path if it points at an existing file, otherwise "".
func FileExist(filename string) string {
	if _, err := os.Stat(filename); err != nil {
		return ""
	}
	return filename
}

// newID builds an entity ID of the form <prefix>_<8 hex chars>_<suffix>.
func newID(prefix, suffix string) string {
	return prefix + "_" + uuid.NewString()[:8] + "_" + suffix
}

// timestamp returns the current UTC time for metadata records.
func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
