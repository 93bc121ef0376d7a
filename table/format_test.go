package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in       interface{}
		expected string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int64(-7), "-7"},
		{1.5, "1.5"},
		{12.0, "12.0"},
		{true, "true"},
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "2023-01-01"},
		{time.Date(2023, 1, 1, 10, 5, 0, 0, time.UTC), "2023-01-01 10:05:00"},
		{time.Date(2023, 1, 1, 10, 5, 0, 0, time.FixedZone("X", 3600)), "2023-01-01 09:05:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, FormatValue(c.in), "input %v", c.in)
	}
}

func TestFormatColumnValue(t *testing.T) {
	midnight := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2023-01-01 00:00:00", FormatColumnValue(TypeTimestamp, midnight))
	assert.Equal(t, "2023-01-01", FormatColumnValue(TypeDate, midnight))
	assert.Equal(t, "x", FormatColumnValue(TypeString, "x"))
}
