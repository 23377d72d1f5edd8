package errors

// ErrorCode identifies a class of API error in responses
type ErrorCode string

const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrConflict     ErrorCode = "CONFLICT"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrBadGateway   ErrorCode = "BAD_GATEWAY"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)
