package entity

import "errors"

// Domain errors
var (
	// Source errors
	ErrSourceNotFound      = errors.New("source not found")
	ErrEmptySource         = errors.New("source contains no text")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidURL          = errors.New("invalid URL")

	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
