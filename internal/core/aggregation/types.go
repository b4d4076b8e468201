package aggregation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SourceType identifies which input dataset a record came from.
// The column never exists in the raw CSV files; it is injected on parse.
type SourceType string

const (
	SourceRed   SourceType = "red"
	SourceWhite SourceType = "white"
)

// Valid reports whether t is one of the known dataset types.
func (t SourceType) Valid() bool {
	return t == SourceRed || t == SourceWhite
}

const (
	// QualityColumn is the header name of the bounded score column.
	QualityColumn = "quality"

	// DefaultDelimiter is the field separator used by the UCI wine quality files.
	DefaultDelimiter = ';'

	DefaultHighThreshold = 7
	DefaultLowThreshold  = 4

	HighLabel = "high"
	LowLabel  = "low"
)

var (
	minQuality = decimal.Zero
	maxQuality = decimal.NewFromInt(10)
)

var (
	// ErrMalformedInput marks tabular input that cannot be parsed into the expected columns.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidThresholds is returned when the high threshold does not exceed the low one.
	ErrInvalidThresholds = errors.New("invalid quality thresholds")
)

// Source is one raw dataset tagged with its type.
type Source struct {
	Type SourceType
	Data []byte
}

// Record is a single parsed row.
type Record struct {
	SourceType SourceType
	Values     []string        // raw cell values in header order
	Quality    decimal.Decimal // parsed value of the quality column
}

// Dataset is the parsed form of one source.
type Dataset struct {
	Type    SourceType
	Columns []string
	Records []Record
}

// Thresholds split the merged rows into the high and low partitions.
type Thresholds struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

// DefaultThresholds returns high >= 7, low <= 4.
func DefaultThresholds() Thresholds {
	return Thresholds{
		High: decimal.NewFromInt(DefaultHighThreshold),
		Low:  decimal.NewFromInt(DefaultLowThreshold),
	}
}

// Validate requires High > Low so the two partitions are disjoint.
func (t Thresholds) Validate() error {
	if !t.High.GreaterThan(t.Low) {
		return fmt.Errorf("%w: high %s must be greater than low %s", ErrInvalidThresholds, t.High, t.Low)
	}
	return nil
}

// Summary is the persisted per-partition artifact.
// An invalid Average means the partition was empty and serializes as null.
type Summary struct {
	Label   string
	Average decimal.NullDecimal
}

// Field returns the JSON key the summary is stored under, e.g. "high_average_quality".
func (s Summary) Field() string {
	return s.Label + "_average_quality"
}

// MarshalJSON emits {"<label>_average_quality": <number|null>}.
func (s Summary) MarshalJSON() ([]byte, error) {
	var value interface{}
	if s.Average.Valid {
		value = json.Number(s.Average.Decimal.String())
	}
	return json.Marshal(map[string]interface{}{s.Field(): value})
}

// Report is the full output of one aggregation run.
type Report struct {
	Merged []Record
	High   Summary
	Low    Summary
}
