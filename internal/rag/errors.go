package rag

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. Zero retrieved candidates is not a
// failure and has no kind; it is a successful empty response.
type Kind string

const (
	KindValidation Kind = "validation" // missing or empty required field
	KindProvider   Kind = "provider"   // external model service failed, no fallback left
	KindStore      Kind = "store"      // vector store unreachable or rejected the request
)

// Error carries the failure kind and the operation that produced it. Provider
// and store error shapes stay wrapped inside and never define the caller-facing
// contract.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

func providerError(op string, err error) error {
	return &Error{Kind: KindProvider, Op: op, Err: err}
}

func storeError(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// KindOf reports the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
