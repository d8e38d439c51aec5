package upload

import (
	"fmt"
)

// SkippedFile is an entry that could not be read and was left out of the batch.
type SkippedFile struct {
	Name string
	Err  error
}

// DeliveryError describes the request that stopped a batch.
type DeliveryError struct {
	File       string
	Key        string
	StatusCode int    // 0 when no response was received
	Body       string // raw response body, if any
	Err        error  // transport or decoding error, if any
}

func (e *DeliveryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upload %s failed: %v", e.Key, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("upload %s failed: status %d: %v: %s", e.Key, e.StatusCode, e.Err, e.Body)
	}
	return fmt.Sprintf("upload %s failed: status %d: %s", e.Key, e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Result reports how far a batch got. When Failure is set, every entry after
// it in listing order was not attempted.
type Result struct {
	Uploaded []string
	Skipped  []SkippedFile
	Failure  *DeliveryError
}

// Attempted is the number of POST requests issued.
func (r Result) Attempted() int {
	n := len(r.Uploaded)
	if r.Failure != nil {
		n++
	}
	return n
}
