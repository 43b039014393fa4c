package relevance

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned by Search when the backend answered but found
// nothing for the query.
var ErrNoCandidates = errors.New("no relevance candidates found")

// ErrDisabled is returned by Search when no backend URL is configured.
var ErrDisabled = errors.New("search backend not configured")

// ErrBackendUnavailable indicates the search backend could not be reached,
// timed out, or answered with a server error.
type ErrBackendUnavailable struct {
	Op  string
	Err error
}

func (e *ErrBackendUnavailable) Error() string {
	return fmt.Sprintf("search backend unavailable (%s): %v", e.Op, e.Err)
}

func (e *ErrBackendUnavailable) Unwrap() error { return e.Err }

// ErrUnhealthy indicates the backend reported a cluster status other than
// green or yellow.
type ErrUnhealthy struct {
	Status string
}

func (e *ErrUnhealthy) Error() string {
	return fmt.Sprintf("search backend unhealthy: status %q", e.Status)
}
