package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshotDate(t *testing.T) {
	expected := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []interface{}{
		"2023-01-15",
		"15/01/2023",
		"01/15/2023",
		" 2023-01-15 ",
		time.Date(2023, 1, 15, 13, 30, 0, 0, time.UTC),
	} {
		got, err := ParseSnapshotDate(in)
		require.NoError(t, err, "input %v", in)
		assert.Equal(t, expected, got, "input %v", in)
	}
}

func TestParseSnapshotDate_DayMonthWinsWhenAmbiguous(t *testing.T) {
	got, err := ParseSnapshotDate("03/04/2023")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC), got)
}

func TestParseSnapshotDate_Errors(t *testing.T) {
	for _, in := range []interface{}{"not a date", "2023/01/15", nil, int64(20230115)} {
		_, err := ParseSnapshotDate(in)
		assert.Error(t, err, "input %v", in)
	}
}

func TestParseRequestedDate(t *testing.T) {
	d, err := ParseRequestedDate("2023-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2023_01_01", PartitionSuffix(d))

	_, err = ParseRequestedDate("01/01/2023")
	assert.Error(t, err)
	_, err = ParseRequestedDate("2023-13-01")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	d := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "bronze_loan_daily_2024_02_29", OutputName("", d))
	assert.Equal(t, "bronze_clickstream_2024_02_29", OutputName("clickstream", d))
}

func TestSameDate(t *testing.T) {
	assert.True(t, SameDate(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 1, 23, 0, 0, 0, time.UTC)))
	assert.False(t, SameDate(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)))
}
