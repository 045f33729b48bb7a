package tapzero

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/stretchr/testify/assert"
)

// isNullish reports whether v is nil or a nil reference value. All nullish values are
// loosely equal to each other and to nothing else.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan,
		reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// looseEqual is the coercive comparison used by Equal and NotEqual. Strings compare as
// strings; any other mix of numbers, numeric strings and bools compares numerically;
// values of the same comparable type use ==; maps, slices, funcs and channels compare
// by identity.
func looseEqual(a, b any) bool {
	aNull, bNull := isNullish(a), isNullish(b)
	if aNull || bNull {
		return aNull && bNull
	}
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Kind() == reflect.String && bv.Kind() == reflect.String {
		return av.String() == bv.String()
	}
	if isPrimitive(av) && isPrimitive(bv) {
		return numericEqual(av, bv)
	}
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan:
		return av.Pointer() == bv.Pointer()
	case reflect.Slice:
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	}
	if !av.Type().Comparable() {
		return false
	}
	return safeCompare(a, b)
}

// safeCompare uses == but treats a runtime comparison panic (an interface field holding
// an uncomparable value) as inequality.
func safeCompare(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}

func deepEqual(a, b any) bool {
	return assert.ObjectsAreEqual(a, b)
}

// truthy follows the usual scripting-language rules: nullish values, false, zero, NaN and
// the empty string are falsy. Everything else is truthy, including empty non-nil
// collections.
func truthy(v any) bool {
	if isNullish(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Bool:
		return rv.Bool()
	case rv.Kind() == reflect.String:
		return rv.Len() > 0
	case isNumber(rv):
		f := toNumber(rv)
		return f != 0 && !math.IsNaN(f)
	default:
		return true
	}
}

func isSigned(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

func isUnsigned(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isNumber(rv reflect.Value) bool {
	return isSigned(rv) || isUnsigned(rv) || rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64
}

func isPrimitive(rv reflect.Value) bool {
	return isNumber(rv) || rv.Kind() == reflect.Bool || rv.Kind() == reflect.String
}

func numericEqual(a, b reflect.Value) bool {
	switch {
	case isSigned(a) && isSigned(b):
		return a.Int() == b.Int()
	case isUnsigned(a) && isUnsigned(b):
		return a.Uint() == b.Uint()
	case isSigned(a) && isUnsigned(b):
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case isUnsigned(a) && isSigned(b):
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint()
	}
	return toNumber(a) == toNumber(b)
}

func toNumber(rv reflect.Value) float64 {
	switch {
	case isSigned(rv):
		return float64(rv.Int())
	case isUnsigned(rv):
		return float64(rv.Uint())
	case rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64:
		return rv.Float()
	case rv.Kind() == reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case rv.Kind() == reflect.String:
		s := strings.TrimSpace(rv.String())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
