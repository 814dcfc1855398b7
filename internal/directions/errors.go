package directions

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

var (
	// ErrNetwork matches any *NetworkError.
	ErrNetwork = errors.New("directions: network error")
	// ErrHTTPStatus matches any *HTTPStatusError.
	ErrHTTPStatus = errors.New("directions: unexpected http status")
	// ErrParse matches any *ParseError.
	ErrParse = errors.New("directions: unrecognized response")
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 512

// NetworkError wraps a transport failure: connection, TLS, body read or cancellation.
type NetworkError struct {
	Backend route.Backend
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }
func (e *NetworkError) Outcome() route.Outcome { return route.OutcomeNetworkError }

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	Backend    route.Backend
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded with status %d", e.Backend, e.StatusCode)
	}
	return fmt.Sprintf("%s responded with status %d: %s", e.Backend, e.StatusCode, e.Body)
}

func (e *HTTPStatusError) Is(target error) bool { return target == ErrHTTPStatus }
func (e *HTTPStatusError) Outcome() route.Outcome { return route.OutcomeHTTPStatusError }

// ParseError reports a response body that does not have the expected shape.
// Field names the JSON path that was missing or malformed, if known.
type ParseError struct {
	Backend route.Backend
	Field   string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %s response: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("parse %s response: %s: %v", e.Backend, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
func (e *ParseError) Is(target error) bool { return target == ErrParse }
func (e *ParseError) Outcome() route.Outcome { return route.OutcomeParseError }

var errMissing = errors.New("missing")

func truncateBody(b []byte) string {
	suffix := ""
	if len(b) > maxErrorBody {
		n := maxErrorBody
		for n > 0 && !utf8.RuneStart(b[n]) {
			n--
		}
		b, suffix = b[:n], "..."
	}
	return strings.ToValidUTF8(string(b), "\uFFFD") + suffix
}
