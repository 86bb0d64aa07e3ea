// Package check evaluates response-body assertions against JSON payloads.
package check

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Assertion requires one JSON field to equal a literal value.
type Assertion struct {
	Path   string
	Expect string
}

// AssertionError reports a response body that did not satisfy an Assertion.
// Its message is deterministic so the aggregator can tally identical failures
// under one key.
type AssertionError struct {
	Path   string
	Expect string
	Got    string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s = %q, got %q", e.Path, e.Expect, e.Got)
}

// Parse turns a "path=value" flag into an Assertion. An empty input yields
// nil, meaning no assertion is configured.
func Parse(raw string) (*Assertion, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.SplitN(trimmed, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("invalid assertion %q: expected \"path=value\"", raw)
	}
	return &Assertion{
		Path:   strings.TrimSpace(parts[0]),
		Expect: strings.TrimSpace(parts[1]),
	}, nil
}

// Evaluate checks the body against the assertion. A missing path and a
// mismatched value are both failures.
func (a *Assertion) Evaluate(body []byte) error {
	result := gjson.GetBytes(body, normalizePath(a.Path))
	if !result.Exists() {
		return &AssertionError{Path: a.Path, Expect: a.Expect, Got: "<missing>"}
	}
	if result.String() != a.Expect {
		return &AssertionError{Path: a.Path, Expect: a.Expect, Got: result.String()}
	}
	return nil
}

// normalizePath accepts both $.field and bare field syntax.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "$.") {
		return path[2:]
	}
	if path == "$" {
		return "@this"
	}
	return path
}
