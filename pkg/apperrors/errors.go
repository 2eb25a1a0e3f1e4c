package apperrors

import "errors"

var (
	// ErrParse indicates a malformed semantic model document.
	ErrParse = errors.New("semantic model parse failure")
	// ErrValidation indicates a well-formed but semantically invalid model.
	ErrValidation = errors.New("semantic model validation failure")
	// ErrUpload indicates a stage write or transport error.
	ErrUpload = errors.New("stage upload failure")
	// ErrDuplicateTable indicates a logical table name collision.
	ErrDuplicateTable = errors.New("table name already exists")
	// ErrInference indicates a schema inference collaborator error.
	ErrInference = errors.New("schema inference failure")
)
