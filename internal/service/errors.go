package service

import (
	"errors"
	"fmt"
)

var (
	ErrPasswordRequired     = errors.New("password required")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrStorageNotConfigured = errors.New("storage not configured")
	ErrNoFile               = errors.New("no file provided")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedType      = errors.New("unsupported media type")
	ErrUnsupportedImage     = errors.New("unsupported image")
	ErrVideoProcessing      = errors.New("video processing failed")
)

// ValidationError is a client mistake. Key is an i18n message key, Args its format arguments.
type ValidationError struct {
	Key  string
	Args []any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(e.Key, e.Args...)
}

func invalid(key string, args ...any) error {
	return &ValidationError{Key: key, Args: args}
}
