package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		src       Source
		delimiter rune
		wantRows  int
		wantErr   string
	}{
		{
			name:      "quoted header",
			src:       Source{Type: SourceRed, Data: []byte("\"alcohol\";\"quality\"\n9.4;5\n9.8;6\n")},
			delimiter: ';',
			wantRows:  2,
		},
		{
			name:      "byte order mark",
			src:       Source{Type: SourceWhite, Data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("quality\n7\n")...)},
			delimiter: ';',
			wantRows:  1,
		},
		{
			name:      "header only",
			src:       Source{Type: SourceRed, Data: []byte("alcohol;quality\n")},
			delimiter: ';',
			wantRows:  0,
		},
		{
			name:      "zero delimiter falls back to semicolon",
			src:       Source{Type: SourceRed, Data: []byte("alcohol;quality\n9.4;5\n")},
			delimiter: 0,
			wantRows:  1,
		},
		{
			name:      "comma delimiter",
			src:       Source{Type: SourceRed, Data: []byte("alcohol,quality\n9.4,5\n")},
			delimiter: ',',
			wantRows:  1,
		},
		{
			name:      "empty input",
			src:       Source{Type: SourceRed, Data: nil},
			delimiter: ';',
			wantErr:   "red source is empty",
		},
		{
			name:      "missing quality column",
			src:       Source{Type: SourceRed, Data: []byte("col1,col2,col3\n1,2,3\n")},
			delimiter: ';',
			wantErr:   `no "quality" column`,
		},
		{
			name:      "ragged row",
			src:       Source{Type: SourceRed, Data: []byte("alcohol;quality\n9.4;5;1\n")},
			delimiter: ';',
			wantErr:   "wrong number of fields",
		},
		{
			name:      "non numeric quality",
			src:       Source{Type: SourceWhite, Data: []byte("alcohol;quality\n9.4;good\n")},
			delimiter: ';',
			wantErr:   "white line 2",
		},
		{
			name:      "quality out of bounds",
			src:       Source{Type: SourceRed, Data: []byte("alcohol;quality\n9.4;11\n")},
			delimiter: ';',
			wantErr:   "outside [0, 10]",
		},
		{
			name:      "unknown source type",
			src:       Source{Type: "rose", Data: []byte("quality\n5\n")},
			delimiter: ';',
			wantErr:   "unknown source type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ds, err := Parse(tc.src, tc.delimiter)
			if tc.wantErr != "" {
				require.ErrorIs(t, err, ErrMalformedInput)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, ds.Records, tc.wantRows)
			for _, r := range ds.Records {
				require.Equal(t, tc.src.Type, r.SourceType)
				require.Len(t, r.Values, len(ds.Columns))
			}
		})
	}
}

func TestParse_QualityValue(t *testing.T) {
	ds, err := Parse(Source{Type: SourceRed, Data: []byte("quality;alcohol\n 6 ;9.4\n")}, ';')
	require.NoError(t, err)
	require.Equal(t, []string{"quality", "alcohol"}, ds.Columns)
	require.True(t, decimal.NewFromInt(6).Equal(ds.Records[0].Quality))
}
