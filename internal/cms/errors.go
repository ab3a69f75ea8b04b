package cms

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a CMS resource cannot be located.
var ErrNotFound = errors.New("cms: not found")

// ErrNoEndpoint is returned by Client calls when no endpoint is configured.
var ErrNoEndpoint = errors.New("cms: endpoint not configured")

// StatusError reports a non-2xx response from the CMS.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms: remote status %d", e.Status)
}

// QueryError carries the messages of a GraphQL errors array.
type QueryError struct {
	Messages []string
}

func (e *QueryError) Error() string {
	if len(e.Messages) == 0 {
		return "cms: query failed"
	}
	return "cms: query failed: " + strings.Join(e.Messages, "; ")
}
