// Package errors provides sentinel errors and custom error types for the sapling application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrUnknownMark indicates that a referenced mark or hash does not resolve
	ErrUnknownMark = errors.New("unknown mark")

	// ErrDuplicateMark indicates that a mark was defined more than once
	ErrDuplicateMark = errors.New("duplicate mark")

	// ErrUnsupportedAction indicates an action tag outside {commit, goto, reset, hide}
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrTooManyCommits indicates the export commit-count limit was exceeded
	ErrTooManyCommits = errors.New("too many commits")

	// ErrTooManyFiles indicates the export file-count limit was exceeded
	ErrTooManyFiles = errors.New("too many files")

	// ErrTooMuchData indicates the export byte-size limit was exceeded
	ErrTooMuchData = errors.New("too much data")

	// ErrMalformedFileEntry indicates a file entry with neither content nor a deletion marker
	ErrMalformedFileEntry = errors.New("malformed file entry")
)

// UnknownMarkError represents an error when a mark or hash cannot be resolved
type UnknownMarkError struct {
	Mark string
}

func (e *UnknownMarkError) Error() string {
	return fmt.Sprintf("unknown mark: %s", e.Mark)
}

// Is returns true if the target error is ErrUnknownMark
func (e *UnknownMarkError) Is(target error) bool {
	return target == ErrUnknownMark
}

// NewUnknownMarkError creates a new UnknownMarkError
func NewUnknownMarkError(mark string) *UnknownMarkError {
	return &UnknownMarkError{Mark: mark}
}

// DuplicateMarkError represents an error when a mark is redefined
type DuplicateMarkError struct {
	Mark string
}

func (e *DuplicateMarkError) Error() string {
	return fmt.Sprintf("duplicate mark: %s", e.Mark)
}

// Is returns true if the target error is ErrDuplicateMark
func (e *DuplicateMarkError) Is(target error) bool {
	return target == ErrDuplicateMark
}

// NewDuplicateMarkError creates a new DuplicateMarkError
func NewDuplicateMarkError(mark string) *DuplicateMarkError {
	return &DuplicateMarkError{Mark: mark}
}

// UnsupportedActionError represents an error for an unrecognized action tag
type UnsupportedActionError struct {
	Action string
	Body   string
}

func (e *UnsupportedActionError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unsupported action: ['%s', %s]", e.Action, e.Body)
	}
	return fmt.Sprintf("unsupported action: %s", e.Action)
}

// Is returns true if the target error is ErrUnsupportedAction
func (e *UnsupportedActionError) Is(target error) bool {
	return target == ErrUnsupportedAction
}

// NewUnsupportedActionError creates a new UnsupportedActionError
func NewUnsupportedActionError(action string, body string) *UnsupportedActionError {
	return &UnsupportedActionError{Action: action, Body: body}
}

// MalformedFileEntryError represents an error for an undecodable file entry
type MalformedFileEntryError struct {
	Path string
}

func (e *MalformedFileEntryError) Error() string {
	return fmt.Sprintf("malformed file entry: %s", e.Path)
}

// Is returns true if the target error is ErrMalformedFileEntry
func (e *MalformedFileEntryError) Is(target error) bool {
	return target == ErrMalformedFileEntry
}

// NewMalformedFileEntryError creates a new MalformedFileEntryError
func NewMalformedFileEntryError(path string) *MalformedFileEntryError {
	return &MalformedFileEntryError{Path: path}
}

// ExportLimitError represents an export resource limit violation
type ExportLimitError struct {
	Kind  error // one of ErrTooManyCommits, ErrTooManyFiles, ErrTooMuchData
	Limit int64
}

func (e *ExportLimitError) Error() string {
	return e.Kind.Error()
}

// Is returns true if the target error matches the violated limit kind
func (e *ExportLimitError) Is(target error) bool {
	return target == e.Kind
}

// NewExportLimitError creates a new ExportLimitError
func NewExportLimitError(kind error, limit int64) *ExportLimitError {
	return &ExportLimitError{Kind: kind, Limit: limit}
}
