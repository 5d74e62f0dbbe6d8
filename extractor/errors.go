package extractor

import (
	"errors"
	"fmt"
)

var (
	ErrNextDataNotFound = errors.New("__NEXT_DATA__ script not found in page")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrMissingTitle     = errors.New("candidate has no title")
	ErrMissingPrice     = errors.New("candidate has no price")
	ErrPageTooLarge     = errors.New("page exceeds limit")
)

// NetworkError is a transport failure: DNS, connect, TLS, timeout.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a response outside the 2xx range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %s for %s", e.Status, e.URL)
}

// DecodeError wraps malformed embedded JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to parse __NEXT_DATA__ JSON: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ReconstructError reports reassembled character-array text that is not JSON.
type ReconstructError struct {
	Length int
	Prefix string
	Err    error
}

func (e *ReconstructError) Error() string {
	return fmt.Sprintf("reconstructed %d bytes are not valid JSON (starts %q): %v", e.Length, e.Prefix, e.Err)
}

func (e *ReconstructError) Unwrap() error { return e.Err }

// CandidateError is a failure while normalizing a single candidate. It never
// fails the location.
type CandidateError struct {
	Path string
	Err  error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("candidate at %s: %v", e.Path, e.Err)
}

func (e *CandidateError) Unwrap() error { return e.Err }

// LocationError ties a failure to the location it came from.
type LocationError struct {
	Slug string
	Name string
	Err  error
}

func (e *LocationError) Error() string {
	name := e.Name
	if name == "" {
		name = e.Slug
	}
	return fmt.Sprintf("failed to extract from %s: %v", name, e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }
