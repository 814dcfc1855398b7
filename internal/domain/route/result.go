package route

import (
	"context"
	"errors"
)

// Outcome classifies how a fetch ended.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeNoRoute         Outcome = "no_route"
	OutcomeNetworkError    Outcome = "network_error"
	OutcomeHTTPStatusError Outcome = "http_status_error"
	OutcomeParseError      Outcome = "parse_error"
	OutcomeDecodeError     Outcome = "decode_error"
	OutcomeCancelled       Outcome = "cancelled"
	OutcomeUnknownError    Outcome = "unknown_error"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeOK,
	OutcomeNoRoute,
	OutcomeNetworkError,
	OutcomeHTTPStatusError,
	OutcomeParseError,
	OutcomeDecodeError,
	OutcomeCancelled,
	OutcomeUnknownError,
}

// IsFailure returns true for outcomes caused by an error.
func (o Outcome) IsFailure() bool {
	return o != OutcomeOK && o != OutcomeNoRoute
}

// Classifier is implemented by errors that know which outcome they represent.
type Classifier interface {
	Outcome() Outcome
}

// ClassifyError maps an error to an Outcome. A nil error is OutcomeOK.
func ClassifyError(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCancelled
	}
	var c Classifier
	if errors.As(err, &c) {
		return c.Outcome()
	}
	return OutcomeUnknownError
}

// Result is the single value delivered for a fetch.
//
// Points is empty both when the backend found no route and when the fetch failed;
// Err carries the failure cause and is nil for success and for "no route".
type Result struct {
	Points []GeoPoint
	Err    error
}

// Outcome classifies the result.
func (r Result) Outcome() Outcome {
	if r.Err != nil {
		return ClassifyError(r.Err)
	}
	if len(r.Points) == 0 {
		return OutcomeNoRoute
	}
	return OutcomeOK
}

// Failed returns a Result with no points and the given cause.
func Failed(err error) Result {
	return Result{Points: []GeoPoint{}, Err: err}
}
