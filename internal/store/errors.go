package store

import "fmt"

var (
	// ErrNotFound is returned when no render is cached under a key
	ErrNotFound = fmt.Errorf("record not found")

	// ErrDatabaseClosed is returned when attempting to use a closed store
	ErrDatabaseClosed = fmt.Errorf("database is closed")
)
