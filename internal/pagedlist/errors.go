package pagedlist

import (
	"errors"
	"fmt"
)

var (
	ErrClosed      = errors.New("paged list is closed")
	ErrInitialized = errors.New("paged list already initialized")
)

// FetchError is a failed page retrieval. It is retryable: the list keeps its
// pages and continuation state, so the next admitted scroll tries again.
type FetchError struct {
	Cursor string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Cursor == "" {
		return fmt.Sprintf("fetch first page: %v", e.Err)
	}
	return fmt.Sprintf("fetch page %q: %v", e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ActionError is a failed item action such as deleting a notification. The
// list is left untouched.
type ActionError struct {
	ID  int64
	Err error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("notification %d: %v", e.ID, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
