package models

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid arguments")
	// ErrDuplicateSource — активный job для этого source id уже существует.
	ErrDuplicateSource = errors.New("active job exists for source id")
)
