package serverutils

// Error codes returned in the error envelope. The frontend switches on
// these, so they are part of the API contract.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeParseError      = "PARSE_ERROR"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeUrlBlocked      = "URL_BLOCKED"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

type ErrorBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Hint      string `json:"hint,omitempty"`
}

func ErrorResponse(message, code string) ErrorBody {
	return ErrorBody{
		Success:   false,
		Error:     message,
		ErrorCode: code,
	}
}

// AppError carries an HTTP status and API error code through the service
// layer up to the error middleware.
type AppError struct {
	Status  int
	Code    string
	Message string
	Hint    string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

func (e *AppError) WithErr(err error) *AppError {
	e.Err = err
	return e
}
