package crawler

import "fmt"

// ErrorKind names the stable failure class of a PageResult, per the
// taxonomy in the spec's error-handling design.
type ErrorKind string

const (
	ErrKindNone      ErrorKind = ""
	ErrKindTimeout   ErrorKind = "timeout"
	ErrKindTransport ErrorKind = "transport"
	ErrKindHTTPError ErrorKind = "http_error"
	ErrKindParse     ErrorKind = "parse"
)

// HTTPError wraps a non-2xx final response. Error() gives a short
// human-readable descriptor; Category() gives the status-code category
// computed the same way StatusCategory does, so the two never disagree.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	switch {
	case e.StatusCode == 408 || e.StatusCode == 504:
		return fmt.Sprintf("timeout (%d)", e.StatusCode)
	case e.StatusCode >= 500:
		return fmt.Sprintf("server error (%d)", e.StatusCode)
	case e.StatusCode >= 400:
		return fmt.Sprintf("client error (%d)", e.StatusCode)
	case e.StatusCode >= 300:
		return fmt.Sprintf("redirect not followed (%d)", e.StatusCode)
	default:
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
}

// Category returns the same classification StatusCategory would return
// for e.StatusCode, so a caller never has to reconcile the two.
func (e *HTTPError) Category() string {
	return StatusCategory(e.StatusCode)
}
