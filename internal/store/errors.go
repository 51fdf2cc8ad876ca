package store

import "fmt"

// StorageError marks a cache or gallery write failure. It is user-visible but
// never invalidates in-memory results already computed for the run.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
