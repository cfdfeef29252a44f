package resumes

import "errors"

var (
	// ErrValidation marks rejected caller input.
	ErrValidation = errors.New("invalid input")
	// ErrStorage marks an object-store write failure before anything else ran.
	ErrStorage = errors.New("object storage failed")
	// ErrAnalysisService marks a fatal gateway failure on the mandatory
	// analysis step; the stored object has been compensated.
	ErrAnalysisService = errors.New("resume analysis service failed")
	// ErrPersistence marks a database failure after analysis succeeded; the
	// stored object has been compensated.
	ErrPersistence = errors.New("resume persistence failed")
	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("resume not found")
	// ErrAccessDenied marks an operation on a record owned by someone else.
	ErrAccessDenied = errors.New("access denied")
)

const (
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeStorage      = "STORAGE_ERROR"
	ErrorCodeAnalysis     = "ANALYSIS_SERVICE_ERROR"
	ErrorCodePersistence  = "PERSISTENCE_ERROR"
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeAccessDenied = "ACCESS_DENIED"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)
