package types

import "fmt"

// CustomError is rendered by the Fiber error handler as the standard error
// body. Err, when set, is the underlying cause.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

// NewCustomError builds a CustomError with a formatted message.
func NewCustomError(code int, errorType, format string, args ...interface{}) *CustomError {
	return &CustomError{Code: code, Type: errorType, Message: fmt.Sprintf(format, args...)}
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}
