package metrics

import "time"

// Result is the outcome of exactly one work unit: one HTTP request or one
// WebSocket session. Workers produce Results; only the Aggregator consumes
// them.
//
// Invariants: OK implies Err == nil. StatusCode is non-zero only for HTTP
// attempts that reached a server response, including non-2xx ones; it is
// always zero on the WebSocket path.
type Result struct {
	Duration   time.Duration
	OK         bool
	StatusCode int
	Err        error
}

// unknownErrorKey tallies failures that carry no error message.
const unknownErrorKey = "unknown error"

// errorKey normalizes a failure into its tally key: the exact message text,
// or a fixed key when there is none.
func errorKey(err error) string {
	if err == nil {
		return unknownErrorKey
	}
	msg := err.Error()
	if msg == "" {
		return unknownErrorKey
	}
	return msg
}
