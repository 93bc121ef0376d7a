package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	c "github.com/relloyd/bronze/constants"
)

// FormatValue renders a typed value for CSV output. Nil values are empty strings.
// Times at UTC midnight are written as dates, other times as UTC timestamps.
// Whole doubles keep a trailing ".0" so they are read back as doubles.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		s := strconv.FormatFloat(t, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if isDate(t) {
			return t.Format(c.TimeFormatDate)
		}
		return t.UTC().Format(c.TimeFormatTimestamp)
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FormatColumnValue renders v using the column type where it matters.
// Timestamps are always written with a time part, even at midnight.
func FormatColumnValue(t Type, v interface{}) string {
	if ts, ok := v.(time.Time); ok && t == TypeTimestamp {
		return ts.UTC().Format(c.TimeFormatTimestamp)
	}
	return FormatValue(v)
}

func isDate(t time.Time) bool {
	return t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
