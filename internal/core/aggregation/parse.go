package aggregation

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads one delimited source into a Dataset.
// The first row is the header and must contain the quality column. Every row must
// match the header's field count and carry a quality value within [0, 10].
// All failures wrap ErrMalformedInput.
func Parse(src Source, delimiter rune) (*Dataset, error) {
	if !src.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown source type %q", ErrMalformedInput, src.Type)
	}
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(src.Data, utf8BOM)))
	r.Comma = delimiter

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s source is empty", ErrMalformedInput, src.Type)
		}
		return nil, fmt.Errorf("%w: %s header: %v", ErrMalformedInput, src.Type, err)
	}

	columns := make([]string, len(header))
	qualityIdx := -1
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
		if columns[i] == QualityColumn {
			qualityIdx = i
		}
	}
	if qualityIdx < 0 {
		return nil, fmt.Errorf("%w: %s header has no %q column", ErrMalformedInput, src.Type, QualityColumn)
	}

	ds := &Dataset{Type: src.Type, Columns: columns}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedInput, src.Type, err)
		}

		line, _ := r.FieldPos(0)
		quality, err := parseQuality(row[qualityIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedInput, src.Type, line, err)
		}

		ds.Records = append(ds.Records, Record{
			SourceType: src.Type,
			Values:     row,
			Quality:    quality,
		})
	}

	return ds, nil
}

func parseQuality(raw string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("quality %q is not a number", raw)
	}
	if q.LessThan(minQuality) || q.GreaterThan(maxQuality) {
		return decimal.Zero, fmt.Errorf("quality %s outside [%s, %s]", q, minQuality, maxQuality)
	}
	return q, nil
}
