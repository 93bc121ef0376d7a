package stream

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	h "github.com/relloyd/bronze/helper"
	"github.com/relloyd/bronze/logger"
)

// NewRecord creates a new Record and returns it by value as we expect these records to go over channels by value too.
func NewRecord() Record {
	return Record{
		data: make(map[string]interface{}),
	}
}

func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return len(sr.data) == 0 && sr.data == nil
}

// Record is used to communicate data between components.
// Values are typed by the reader that produced them; empty CSV cells are nil interfaces.
type Record struct {
	data map[string]interface{}
}

// ValueFormatter renders a single typed value as text.
type ValueFormatter func(v interface{}) string

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

// GetDataAsStringPreserveTimeZone will convert interface{} value to a string.
// Times will be in local time.
func (sr Record) GetDataAsStringPreserveTimeZone(log logger.Logger, name string) (retval string) {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream", name))
	}
	return h.GetStringFromInterface(log, v, false)
}

// GetSortedDataMapKeys will return a slice of the keys found in map sr.data.
func (sr Record) GetSortedDataMapKeys() []string {
	retval := make([]string, 0, len(sr.data))
	for k := range sr.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval
}

// GetJson returns the JSON representation of sr.data using the supplied keys to fetch the data.
// Values are rendered by f and nil values become JSON null.
func (sr Record) GetJson(log logger.Logger, keys []string, f ValueFormatter) string {
	out := make([]string, len(keys))
	for idx, key := range keys { // for each key...
		var jsonValue []byte
		var err error
		v := sr.data[key]
		switch v.(type) {
		case nil:
			jsonValue = []byte("null")
		case int64, float64, bool:
			jsonValue, err = json.Marshal(v)
		default:
			jsonValue, err = json.Marshal(f(v))
		}
		if err != nil {
			log.Panic("Error marshalling the value of key '", key, "' to JSON")
		}
		jsonKey, err := json.Marshal(key)
		if err != nil {
			log.Panic("Error marshalling key '", key, "' to JSON")
		}
		// Save the "key: value".
		out[idx] = fmt.Sprintf("%s: %s", jsonKey, jsonValue)
	}
	return fmt.Sprintf("{%v}", strings.Join(out, ", "))
}
