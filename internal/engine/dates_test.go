package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("date", "2024-04-15")
	require.NoError(t, err)
	require.Equal(t, day("2024-04-15"), got)

	for _, bad := range []string{"not-a-date", "2024-1-5", "2024-02-30", "15/04/2024", "2024-04-15T00:00:00Z"} {
		_, err := ParseDate("date", bad)
		var invalid *InvalidParameterError
		require.ErrorAs(t, err, &invalid, "input %q", bad)
		require.Equal(t, "date", invalid.Field)
		require.Equal(t, bad, invalid.Value)
	}
}

func TestQuarterStart(t *testing.T) {
	cases := map[string]string{
		"2024-01-01": "2024-01-01",
		"2024-03-31": "2024-01-01",
		"2024-04-01": "2024-04-01",
		"2024-05-20": "2024-04-01",
		"2024-09-30": "2024-07-01",
		"2024-12-31": "2024-10-01",
	}
	for in, want := range cases {
		require.Equal(t, day(want), QuarterStart(day(in)), "input %s", in)
	}
}

func TestYearStart(t *testing.T) {
	require.Equal(t, day("2024-01-01"), YearStart(day("2024-06-15")))
	require.Equal(t, day("1999-01-01"), YearStart(day("1999-12-31")))
}
