package sparql

import (
	"errors"
	"fmt"
)

var ErrMalformedResults = errors.New("malformed SPARQL results")

// HTTPError is returned when the endpoint answered with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("SPARQL query failed: %d %s\n%s", e.StatusCode, e.Status, e.Body)
}

// NetworkError is returned when no response was received at all.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to reach SPARQL endpoint %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is, or wraps, a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
