package enum

import (
	"fmt"
	"reflect"
)

var enumManager = map[string]any{}

type enum[T comparable] struct {
	toEnum map[string]T
}

// New registers a value as a member of its enum type. The string form of the
// value is the lookup key used by ToEnum.
func New[T comparable](value T) T {
	v := reflect.ValueOf(value)
	t := v.Type()
	if _, ok := enumManager[t.Name()]; !ok {
		enumManager[t.Name()] = enum[T]{toEnum: make(map[string]T)}
	}

	enumManager[t.Name()].(enum[T]).toEnum[v.String()] = value
	return value
}

// ToString returns the string form of a registered enum member, or an empty
// string for values that were never registered.
func ToString[T comparable](value T) string {
	v := reflect.ValueOf(value)
	e, ok := enumManager[v.Type().Name()]
	if !ok {
		return ""
	}

	if _, ok := e.(enum[T]).toEnum[v.String()]; !ok {
		return ""
	}

	return v.String()
}

// ToEnum converts a string to a registered enum member. Unknown tags are
// rejected with an error.
func ToEnum[T comparable](s string) (T, error) {
	var defaultT T
	e, ok := enumManager[reflect.TypeOf(defaultT).Name()]
	if !ok {
		return defaultT, fmt.Errorf("not found enum type %T", defaultT)
	}

	t, ok := e.(enum[T]).toEnum[s]
	if !ok {
		return defaultT, fmt.Errorf("not found value %s in enum %T", s, defaultT)
	}

	return t, nil
}
