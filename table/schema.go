// Package table holds the typed view of a loaded CSV: its schema, value parsing and formatting, and the
// snapshot date rules used to select and name a single day's bronze table.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	c "github.com/relloyd/bronze/constants"
)

type Type string

const (
	TypeInteger   Type = "integer"
	TypeDouble    Type = "double"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeTimestamp Type = "timestamp"
	TypeString    Type = "string"
)

// inferenceOrder is the order in which types are tried, narrowest first.
var inferenceOrder = []Type{TypeInteger, TypeDouble, TypeBoolean, TypeDate, TypeTimestamp}

var timestampLayouts = []string{time.RFC3339, c.TimeFormatTimestamp}

type Column struct {
	Name string `json:"name" yaml:"name"`
	Type Type   `json:"type" yaml:"type"`
}

// Schema is the ordered list of columns found in a CSV header.
type Schema []Column

// Names returns the column names in header order.
func (s Schema) Names() []string {
	retval := make([]string, len(s))
	for idx, col := range s {
		retval[idx] = col.Name
	}
	return retval
}

// Has returns true if the schema contains a column with the given name.
func (s Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Lookup returns the column with the given name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, col := range s {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// WithType returns a copy of the schema where the named column has type t.
func (s Schema) WithType(name string, t Type) Schema {
	retval := make(Schema, len(s))
	copy(retval, s)
	for idx := range retval {
		if retval[idx].Name == name {
			retval[idx].Type = t
		}
	}
	return retval
}

// InferSchema chooses the narrowest type per column that parses every non-blank cell.
// A column without any non-blank cells is a string.
func InferSchema(header []string, rows [][]string) Schema {
	schema := make(Schema, len(header))
	for colIdx, name := range header {
		schema[colIdx] = Column{Name: name, Type: inferColumnType(rows, colIdx)}
	}
	return schema
}

func inferColumnType(rows [][]string, colIdx int) Type {
	candidates := make([]Type, len(inferenceOrder))
	copy(candidates, inferenceOrder)
	seenValue := false
	for _, row := range rows {
		if colIdx >= len(row) || strings.TrimSpace(row[colIdx]) == "" {
			continue
		}
		seenValue = true
		remaining := candidates[:0]
		for _, t := range candidates {
			if _, err := ParseValue(t, row[colIdx]); err == nil {
				remaining = append(remaining, t)
			}
		}
		candidates = remaining
		if len(candidates) == 0 {
			return TypeString
		}
	}
	if !seenValue {
		return TypeString
	}
	return candidates[0]
}

// ParseValue converts the text s into a value of type t.
// Empty strings are returned as nil for every type. Strings keep their surrounding spaces;
// other types ignore them and treat a blank value as nil.
func ParseValue(t Type, s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	if t == TypeString {
		return s, nil
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	switch t {
	case TypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case TypeDouble:
		if isSpecialFloat(s) {
			return nil, fmt.Errorf("value %q is not a finite double", s)
		}
		return strconv.ParseFloat(s, 64)
	case TypeBoolean:
		switch strings.ToLower(s) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("value %q is not a boolean", s)
	case TypeDate:
		return time.Parse(c.TimeFormatDate, s)
	case TypeTimestamp:
		var err error
		for _, layout := range timestampLayouts {
			var ts time.Time
			if ts, err = time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return nil, err
	default:
		return nil, fmt.Errorf("unsupported column type %q", t)
	}
}

func isSpecialFloat(s string) bool {
	l := strings.ToLower(strings.TrimLeft(s, "+-"))
	return strings.HasPrefix(l, "inf") || l == "nan"
}
