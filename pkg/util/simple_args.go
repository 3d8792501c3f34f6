package util

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// FilterSimpleArgs keeps the arguments that can be formatted into a log
// line. Errors are kept, other structs and pointers (slack attachments,
// fills) are dropped.
func FilterSimpleArgs(args []interface{}) (simpleArgs []interface{}) {
	for _, arg := range args {
		switch arg.(type) {
		case nil:
			continue

		case error, time.Time, time.Duration, decimal.Decimal, []string, []byte, []float64:
			simpleArgs = append(simpleArgs, arg)
			continue
		}

		switch reflect.TypeOf(arg).Kind() {
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			simpleArgs = append(simpleArgs, arg)
		}
	}

	return simpleArgs
}
