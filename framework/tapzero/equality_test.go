package tapzero

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct{ X, Y int }

type holder struct{ V any }

func TestLooseEqual(t *testing.T) {
	var nilPtr *point
	var nilMap map[string]int
	var nilSlice []int
	m := map[string]int{"a": 1}
	s := []int{1, 2}

	equal := []struct {
		name string
		a, b any
	}{
		{"same ints", 1, 1},
		{"int and int64", 1, int64(1)},
		{"int and float", 2, 2.0},
		{"unsigned and signed", uint8(3), 3},
		{"numeric string", "1", 1},
		{"padded numeric string", " 1.5 ", 1.5},
		{"empty string and zero", "", 0},
		{"true and one", true, 1},
		{"false and zero", false, 0},
		{"false and zero string", false, "0"},
		{"strings", "foo", "foo"},
		{"nil and nil", nil, nil},
		{"nil and nil pointer", nil, nilPtr},
		{"nil map and nil slice", nilMap, nilSlice},
		{"structs", point{1, 2}, point{1, 2}},
		{"same map", m, m},
		{"same slice", s, s},
	}
	for _, c := range equal {
		t.Run(c.name, func(t *testing.T) {
			assert.True(t, looseEqual(c.a, c.b))
			assert.True(t, looseEqual(c.b, c.a))
		})
	}

	notEqual := []struct {
		name string
		a, b any
	}{
		{"different ints", 1, 2},
		{"negative and unsigned", -1, uint64(math.MaxUint64)},
		{"string compared as string", "1.0", "1"},
		{"non-numeric string", "foo", 0},
		{"nil and zero", nil, 0},
		{"nil and empty string", nil, ""},
		{"nan", math.NaN(), math.NaN()},
		{"different structs", point{1, 2}, point{2, 1}},
		{"equal maps by value", map[string]int{"a": 1}, map[string]int{"a": 1}},
		{"equal slices by value", []int{1}, []int{1}},
		{"different types", point{1, 2}, holder{point{1, 2}}},
		{"uncomparable contents", holder{[]int{1}}, holder{[]int{1}}},
	}
	for _, c := range notEqual {
		t.Run(c.name, func(t *testing.T) {
			assert.False(t, looseEqual(c.a, c.b))
			assert.False(t, looseEqual(c.b, c.a))
		})
	}
}

func TestDeepEqual(t *testing.T) {
	assert.True(t, deepEqual(map[string][]int{"a": {1, 2}}, map[string][]int{"a": {1, 2}}))
	assert.True(t, deepEqual([]point{{1, 2}}, []point{{1, 2}}))
	assert.False(t, deepEqual([]int{1, 2}, []int{2, 1}))
	assert.False(t, deepEqual(1, int64(1)))
}

func TestTruthy(t *testing.T) {
	var nilPtr *point
	var nilMap map[string]int
	var nilErr error

	for _, v := range []any{nil, nilPtr, nilMap, nilErr, false, 0, int8(0), uint(0), 0.0, math.NaN(), ""} {
		assert.False(t, truthy(v), "%#v", v)
	}
	for _, v := range []any{true, 1, -1, 0.5, "0", "false", []int{}, map[string]int{}, point{}, &point{}} {
		assert.True(t, truthy(v), "%#v", v)
	}
}
