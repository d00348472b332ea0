package php

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports a name that is neither tokenized nor built in.
	ErrNotFound = errors.New("not found")
	// ErrUnresolved reports a literal expression that references something
	// not (yet) known.
	ErrUnresolved = errors.New("unresolved reference")
	// ErrCircularReference reports a cycle through extends, implements, use
	// or constant references.
	ErrCircularReference = errors.New("circular reference")
	// ErrUnsupportedExpression reports a span outside the literal grammar.
	ErrUnsupportedExpression = errors.New("unsupported expression")
	// ErrNoParent is returned when resolving parent in a class without one.
	ErrNoParent = errors.New("class has no parent")
)

type ParseErrorCode int

const (
	UnexpectedToken ParseErrorCode = iota + 1
	UnexpectedEnd
	LogicalError
)

func (c ParseErrorCode) String() string {
	switch c {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEnd:
		return "unexpected end of stream"
	case LogicalError:
		return "logical error"
	}
	return "unknown"
}

// ParseError is fatal for the file being parsed.
type ParseError struct {
	Entity   string
	File     string
	Position int
	Line     int
	Code     ParseErrorCode
	Message  string
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.File)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
	}
	sb.WriteString(": ")
	if e.Entity != "" {
		sb.WriteString(e.Entity)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Code.String())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	return sb.String()
}

// DuplicateError is one reason attached to an Invalid marker: an occurrence of
// Name declared in File.
type DuplicateError struct {
	Kind string
	Name string
	File string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s is declared multiple times (declaration in %s)", e.Kind, e.Name, e.File)
}

// RegistrationError aggregates every conflict found while registering one
// file. The registry stays queryable when it is returned.
type RegistrationError struct {
	File   string
	Errors []error
}

func (e *RegistrationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("register %s: %d conflict(s): %s", e.File, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *RegistrationError) Unwrap() []error {
	return e.Errors
}

// TraitConflictError reports two traits supplying the same method name
// without a rule choosing between them.
type TraitConflictError struct {
	Class  string
	Method string
	Traits []string
}

func (e *TraitConflictError) Error() string {
	return fmt.Sprintf("class %s: method %s is supplied by traits %s with no insteadof rule",
		e.Class, e.Method, strings.Join(e.Traits, " and "))
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}
