package storage

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrTooManyFiles    = errors.New("too many files")
	ErrInvalidCategory = errors.New("invalid category")
)
