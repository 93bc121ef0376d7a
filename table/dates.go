package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	c "github.com/relloyd/bronze/constants"
)

// SnapshotDateLayouts are tried in order when parsing snapshot_date values; the first that succeeds wins.
// Ambiguous values such as 03/04/2023 therefore resolve to day/month/year.
var SnapshotDateLayouts = []string{
	c.TimeFormatDate,
	"02/01/2006",
	"01/02/2006",
}

// ParseRequestedDate validates a requested snapshot date, which must be in YYYY-MM-DD form.
func ParseRequestedDate(s string) (time.Time, error) {
	d, err := time.Parse(c.TimeFormatDate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid snapshot date %q, expected format YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseSnapshotDate converts a snapshot_date value into a date at UTC midnight.
// Strings are parsed using SnapshotDateLayouts. Times are truncated to their calendar date.
func ParseSnapshotDate(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range SnapshotDateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse snapshot date %q", s)
	case nil:
		return time.Time{}, errors.New("snapshot date is null")
	default:
		return time.Time{}, fmt.Errorf("unsupported snapshot date value %v of type %T", v, v)
	}
}

// SameDate returns true if a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// PartitionSuffix renders the date as YYYY_MM_DD for use in output names.
func PartitionSuffix(d time.Time) string {
	return strings.ReplaceAll(d.Format(c.TimeFormatDate), "-", "_")
}

// OutputName returns the name of the bronze table artifact without an extension, e.g. bronze_loan_daily_2023_01_01.
func OutputName(tableName string, d time.Time) string {
	if tableName == "" {
		tableName = c.DefaultTableName
	}
	return fmt.Sprintf("%v_%v_%v", c.BronzeFilePrefix, tableName, PartitionSuffix(d))
}
