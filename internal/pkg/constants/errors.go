package constants

import (
	"fmt"
	"net/http"
	"strings"
)

type CodedError struct {
	msg  string
	code int
}

func NewCodedError(msg string, code int) *CodedError {
	return &CodedError{msg: msg, code: code}
}

func (e *CodedError) Error() string {
	return e.msg
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	ErrDBNotFound        = NewCodedError("not found in db", http.StatusNotFound)
	ErrUnauthorized      = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrMissingAuthCookie = NewCodedError("missing auth token", http.StatusUnauthorized)
	ErrTableNotFound     = NewCodedError("table not found", http.StatusNotFound)
	ErrColumnNotFound    = NewCodedError("column not found", http.StatusNotFound)
	ErrPresetNotFound    = NewCodedError("preset not found", http.StatusNotFound)
	ErrConsoleNotLoaded  = NewCodedError("console has no tables loaded", http.StatusServiceUnavailable)
)

// MissingFieldError is returned when a source column is absent from the header
// or a mandatory value in a row is empty.
type MissingFieldError struct {
	Field    string
	InHeader bool
}

func (e *MissingFieldError) Error() string {
	if e.InHeader {
		return fmt.Sprintf("missing column %q", e.Field)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ReferentialIntegrityError is returned when a record references a parent row that does not exist.
type ReferentialIntegrityError struct {
	Table  string
	Parent string
	Key    []string
}

func (e *ReferentialIntegrityError) Error() string {
	if len(e.Key) == 0 {
		return fmt.Sprintf("%s: foreign key violation", e.Table)
	}
	return fmt.Sprintf("%s: no %s row with key (%s)", e.Table, e.Parent, strings.Join(e.Key, ", "))
}

// FileDecodeError is returned when none of the configured encodings could decode a file.
type FileDecodeError struct {
	File  string
	Tried []string
}

func (e *FileDecodeError) Error() string {
	return fmt.Sprintf("%s: could not decode with any of [%s]", e.File, strings.Join(e.Tried, ", "))
}

// QueryExecutionError wraps every failure of a console query: validation, unknown names, engine errors.
type QueryExecutionError struct {
	Msg  string
	Hint string
	Err  error
}

func (e *QueryExecutionError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	return msg
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

func (e *QueryExecutionError) Code() int {
	return http.StatusBadRequest
}

// CaseSensitivityHint is attached to query errors shown to the console user.
const CaseSensitivityHint = "table and column names are case-sensitive: check them against the loaded names (e.g. 'Municipio', not 'municipio')"
