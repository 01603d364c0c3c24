package store

import "errors"

// ErrNotFound indicates a record does not exist or is not visible to the caller.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")
