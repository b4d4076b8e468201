package aggregation

import (
	"github.com/shopspring/decimal"
)

// roundPlaces is the precision of the persisted averages.
const roundPlaces = 2

// Aggregate parses both sources, merges them (a before b) and summarizes the high
// and low quality partitions. It is a pure function of its inputs.
func Aggregate(a, b Source, t Thresholds, delimiter rune) (*Report, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	dsA, err := Parse(a, delimiter)
	if err != nil {
		return nil, err
	}
	dsB, err := Parse(b, delimiter)
	if err != nil {
		return nil, err
	}

	merged := Merge(dsA, dsB)
	high, low := Partition(merged, t)

	return &Report{
		Merged: merged,
		High:   Summary{Label: HighLabel, Average: Mean(high)},
		Low:    Summary{Label: LowLabel, Average: Mean(low)},
	}, nil
}

// Merge concatenates a then b, keeping each source's row order. No dedup.
func Merge(a, b *Dataset) []Record {
	merged := make([]Record, 0, len(a.Records)+len(b.Records))
	merged = append(merged, a.Records...)
	merged = append(merged, b.Records...)
	return merged
}

// Partition selects rows with quality >= t.High and rows with quality <= t.Low.
// Rows strictly between the thresholds land in neither slice.
func Partition(records []Record, t Thresholds) (high, low []Record) {
	for _, r := range records {
		switch {
		case r.Quality.GreaterThanOrEqual(t.High):
			high = append(high, r)
		case r.Quality.LessThanOrEqual(t.Low):
			low = append(low, r)
		}
	}
	return high, low
}

// Mean returns the average quality rounded half-to-even to two places.
// The mean of an empty partition is undefined and returned as an invalid NullDecimal.
func Mean(records []Record) decimal.NullDecimal {
	var acc meanAgg
	for _, r := range records {
		acc.Apply(r.Quality)
	}
	return acc.Result()
}

// meanAgg folds values into a running sum and count.
type meanAgg struct {
	sum   decimal.Decimal
	count int64
}

func (m *meanAgg) Apply(v decimal.Decimal) {
	m.sum = m.sum.Add(v)
	m.count++
}

func (m *meanAgg) Result() decimal.NullDecimal {
	if m.count == 0 {
		return decimal.NullDecimal{}
	}
	avg := m.sum.Div(decimal.NewFromInt(m.count)).RoundBank(roundPlaces)
	return decimal.NewNullDecimal(avg)
}
