package common

// AppError carries the API error code and HTTP status alongside the wrapped
// error chain. Engine operations classify their failures by constructing one,
// so the transport mapping lives with the failure instead of in a switch per
// route. Sentinel errors stay reachable through Unwrap for errors.Is checks.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// NewAppError wraps err with the code, client-facing message and HTTP status
// the handlers should render.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped chain to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
