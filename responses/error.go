package responses

import (
	"fmt"
	"net/http"
)

const (
	CodeUnknownRoute    = 1
	CodeInvalidJSON     = 2
	CodeInternal        = 3
	CodeInvalidArgument = 4
	CodeInvalidToken    = 5
	CodeMissingScope    = 6
	CodeNotFound        = 7
	CodeParseContent    = 8
	CodeUnusable        = 9
)

// Error describes an error for humans and machines
type Error struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return fmt.Sprintf("status:%d, code:%d, message:%q", e.Status, e.Code, e.Message)
}

// NewError - a brand new internal error
func NewError(code int, message string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    code,
		Message: message,
	}
}

// NewErrorf - a brand new error with status using fmt.Sprintf
func NewErrorf(status, code int, message string, args ...interface{}) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: fmt.Sprintf(message, args...),
	}
}
