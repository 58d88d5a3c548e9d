package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/nanotree/types"
)

// CLIError is an error with enough context for a person to act on it
type CLIError struct {
	Operation   string   // What was being done, e.g. "move"
	Cause       string   // Short description of what went wrong
	Details     string   // Technical detail, usually the wrapped error text
	Suggestions []string // Things the user can try
	Underlying  error
}

func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("failed to %s", e.Operation))
	} else {
		msg.WriteString("operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}
	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

// Unwrap returns the underlying error
func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError reports a bad argument or flag value
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
	}
}

// NewNotFoundError reports a reference that matches no node
func NewNotFoundError(operation, ref string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("no node matches %q", ref),
		Suggestions: suggestions,
	}
}

// NewConfigError reports a configuration problem
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError reports a failure reading or writing the store
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "store operation failed"
	details := ""

	if underlying != nil {
		details = underlying.Error()

		errStr := strings.ToLower(details)
		switch {
		case strings.Contains(errStr, "permission denied"):
			cause = "insufficient permissions to access the store"
		case strings.Contains(errStr, "lock"):
			cause = "the store is in use by another process"
		case strings.Contains(errStr, "no space"):
			cause = "no space left to write the store"
		}
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     details,
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// Suggestions shared by several commands
var commonSuggestions = struct {
	ListIDs     string
	LongerID    string
	CheckStore  string
	CheckConfig string
	RunCheck    string
}{
	ListIDs:     "Run 'nanotree tree' to see node ids",
	LongerID:    "Type more characters of the id",
	CheckStore:  "Verify --store points to a writable location",
	CheckConfig: "Check your configuration file or NANOTREE_* environment variables",
	RunCheck:    "Run 'nanotree check --repair' to fix structural problems",
}

// translateError turns a hierarchy error into a CLIError. ref is what the
// user typed for the node the error is about.
func translateError(operation, ref string, err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	switch {
	case errors.Is(err, types.ErrAmbiguous):
		return &CLIError{
			Operation:   operation,
			Cause:       fmt.Sprintf("%q matches more than one node", ref),
			Suggestions: []string{commonSuggestions.LongerID},
			Underlying:  err,
		}
	case errors.Is(err, types.ErrNotFound):
		e := NewNotFoundError(operation, ref, commonSuggestions.ListIDs)
		e.Underlying = err
		return e
	case errors.Is(err, types.ErrInvalidParent):
		return &CLIError{
			Operation:   operation,
			Cause:       "the parent must be an existing folder",
			Details:     err.Error(),
			Suggestions: []string{"Omit --parent to use the top level", commonSuggestions.ListIDs},
			Underlying:  err,
		}
	case errors.Is(err, types.ErrNotFolder):
		return &CLIError{
			Operation:  operation,
			Cause:      fmt.Sprintf("%q is not a folder", ref),
			Underlying: err,
		}
	case errors.Is(err, types.ErrCycle):
		return &CLIError{
			Operation:  operation,
			Cause:      "a folder cannot be moved into itself or one of its descendants",
			Details:    err.Error(),
			Underlying: err,
		}
	case errors.Is(err, types.ErrDanglingReference):
		return &CLIError{
			Operation:   operation,
			Cause:       "the sibling is not listed anywhere",
			Details:     err.Error(),
			Suggestions: []string{commonSuggestions.RunCheck},
			Underlying:  err,
		}
	default:
		return NewStoreError(operation, err, commonSuggestions.CheckStore)
	}
}
