package xerr

import (
	"errors"
	"fmt"
)

// CodeError carries a stable error code alongside the message so handlers
// and pipeline counters can branch on category without string matching.
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// Is lets errors.Is match any CodeError with the same code.
func (e *CodeError) Is(target error) bool {
	var t *CodeError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// Wrap builds a CodeError of the given code around an underlying error.
func Wrap(code int, err error) *CodeError {
	if err == nil {
		return New(code, "")
	}
	return &CodeError{Code: code, Message: err.Error()}
}

// Generic codes.
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

// Pipeline error taxonomy. None of these abort a batch; they are counted
// and reported per document or per unit.
const (
	CodeSourceUnreadable     = 1001 // document cannot be opened/parsed; skip document
	CodeUnitProcessing       = 1002 // one unit failed segmentation/embedding/write; skip unit
	CodeIndexInconsistency   = 1003 // id resolves in one index but not the other
	CodeMissingTemplateField = 1004 // templated record lacks a referenced field; skip record
	CodeRefineBusy           = 1005 // a refinement run is already active
)

var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "internal server error")
	ErrParam       = New(BadRequest, "invalid parameters")

	ErrNotFound           = New(NotFound, "record not found")
	ErrSourceUnreadable   = New(CodeSourceUnreadable, "source unreadable")
	ErrIndexInconsistency = New(CodeIndexInconsistency, "index inconsistency")
	ErrRefineBusy         = New(CodeRefineBusy, "refinement already running")
)

// IsNotFound reports whether err is a NotFound CodeError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
