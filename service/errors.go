package service

import "fmt"

// StoreWriteError indicates that a partial update for one complaint could not
// be written, even after retries. The event is dropped; the feed continues.
type StoreWriteError struct {
	ComplaintID string
	Op          string
	Attempts    int
	Err         error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("%s complaint %s failed after %d attempt(s): %v", e.Op, e.ComplaintID, e.Attempts, e.Err)
}

// Unwrap returns the underlying store error
func (e *StoreWriteError) Unwrap() error {
	return e.Err
}
