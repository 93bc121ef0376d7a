package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferSchema(t *testing.T) {
	header := []string{"loan_id", "tenure", "rate", "paid", "loan_start_date", "updated_at", "snapshot_date", "empty"}
	rows := [][]string{
		{"LN-1", "10", "1.5", "true", "2023-01-01", "2023-01-01 10:00:00", "2023-01-01", ""},
		{"LN-2", "-3", "2", "FALSE", "2023-02-01", "2023-01-02T10:00:00Z", "01/01/2023", ""},
		{"LN-3", "", "", "", "", "", "", ""},
	}
	schema := InferSchema(header, rows)
	expected := Schema{
		{Name: "loan_id", Type: TypeString},
		{Name: "tenure", Type: TypeInteger},
		{Name: "rate", Type: TypeDouble},
		{Name: "paid", Type: TypeBoolean},
		{Name: "loan_start_date", Type: TypeDate},
		{Name: "updated_at", Type: TypeTimestamp},
		{Name: "snapshot_date", Type: TypeString},
		{Name: "empty", Type: TypeString},
	}
	assert.Equal(t, expected, schema)
	assert.Equal(t, header, schema.Names())
	assert.True(t, schema.Has("snapshot_date"))
	assert.False(t, schema.Has("missing"))
}

func TestInferSchema_ShortRows(t *testing.T) {
	schema := InferSchema([]string{"a", "b"}, [][]string{{"1"}})
	assert.Equal(t, TypeInteger, schema[0].Type)
	assert.Equal(t, TypeString, schema[1].Type)
}

func TestInferSchema_NonFiniteDoubles(t *testing.T) {
	schema := InferSchema([]string{"a"}, [][]string{{"1.5"}, {"NaN"}})
	assert.Equal(t, TypeString, schema[0].Type)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(TypeInteger, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = ParseValue(TypeDate, "2023-03-04")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 3, 4, 0, 0, 0, 0, time.UTC), v)

	v, err = ParseValue(TypeDouble, "")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseValue(TypeInteger, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = ParseValue(TypeDouble, "   ")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = ParseValue(TypeString, "  LN-1 ")
	require.NoError(t, err)
	assert.Equal(t, "  LN-1 ", v)

	_, err = ParseValue(TypeBoolean, "yes")
	assert.Error(t, err)

	_, err = ParseValue(Type("decimal"), "1")
	assert.Error(t, err)
}

func TestInferSchema_IgnoresSurroundingSpaces(t *testing.T) {
	s := InferSchema([]string{"tenure", "note"}, [][]string{{" 12", "  a "}, {"24 ", "b"}, {"  ", "   "}})
	assert.Equal(t, Schema{{Name: "tenure", Type: TypeInteger}, {Name: "note", Type: TypeString}}, s)
}

func TestSchema_WithType(t *testing.T) {
	s := Schema{{Name: "snapshot_date", Type: TypeString}}
	got := s.WithType("snapshot_date", TypeDate)
	assert.Equal(t, TypeDate, got[0].Type)
	assert.Equal(t, TypeString, s[0].Type, "original schema should be unchanged")
}
