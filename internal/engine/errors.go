package engine

import "fmt"

// InputError reports a malformed request. It is detected before any external
// call is made, so the caller can safely retry with a corrected request.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid request: " + e.Reason
}

// UpstreamError reports a failure in, or an undecodable response from, the
// reasoning or summarization service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StoreError reports a history store failure that could not be degraded
// around.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
