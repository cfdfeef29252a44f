package coverletters

import "errors"

var (
	ErrValidation   = errors.New("invalid input")
	ErrGeneration   = errors.New("cover letter generation failed")
	ErrNotFound     = errors.New("cover letter not found")
	ErrAccessDenied = errors.New("access denied")
)

const (
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeGeneration   = "GENERATION_ERROR"
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeAccessDenied = "ACCESS_DENIED"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)
