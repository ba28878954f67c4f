package database

import "errors"

// ErrNotFound indicates a requested key does not exist.
var ErrNotFound = errors.New("database: not found")
