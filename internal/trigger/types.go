package trigger

import (
	"context"
	"encoding/json"
	"strings"
)

// Status is the outcome of handling one trigger.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

const (
	DefaultKeyPrefix = "winequality-"
	DefaultKeySuffix = ".csv"
)

// Event is a notification that an object was created in storage.
type Event struct {
	Bucket    string
	Key       string
	EventName string
}

// Result is the structured return of a trigger invocation.
// Faults are reported here instead of being returned as errors.
type Result struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	RunID   string          `json:"run_id,omitempty"`
	High    json.RawMessage `json:"high,omitempty"`
	Low     json.RawMessage `json:"low,omitempty"`
}

// Listener reacts to storage events by running the aggregation pipeline.
// DirectEvent and Poller both satisfy it.
type Listener interface {
	OnTrigger(ctx context.Context, ev Event) Result
}

// KeyFilter selects which created objects should trigger aggregation.
// Empty fields match everything.
type KeyFilter struct {
	Prefix string
	Suffix string
}

// DefaultKeyFilter matches winequality-*.csv.
func DefaultKeyFilter() KeyFilter {
	return KeyFilter{Prefix: DefaultKeyPrefix, Suffix: DefaultKeySuffix}
}

// Match reports whether key passes both the prefix and suffix rules.
func (f KeyFilter) Match(key string) bool {
	return strings.HasPrefix(key, f.Prefix) && strings.HasSuffix(key, f.Suffix)
}
