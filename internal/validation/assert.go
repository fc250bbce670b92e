// Package validation enforces constructor contracts.
//
// A violated contract is a wiring bug in the composition root, never a
// runtime condition, so the helpers panic instead of returning errors.
package validation

import (
	"fmt"
	"reflect"
)

// AssertNotNil panics if ptr is nil.
//
//	validation.AssertNotNil(cache, "copy cache")
func AssertNotNil[T any](ptr *T, name string) {
	if ptr == nil {
		panic(fmt.Sprintf("critical error: %s cannot be nil", name))
	}
}

// AssertPresent panics if dep is a nil interface or wraps a nil pointer,
// map, slice, func or channel. Use it for interface-typed dependencies.
//
//	validation.AssertPresent(sink, "event sink")
func AssertPresent(dep any, name string) {
	if isNil(dep) {
		panic(fmt.Sprintf("critical error: %s cannot be nil", name))
	}
}

// AssertNotBlank panics if value is empty.
func AssertNotBlank(value, name string) {
	if value == "" {
		panic(fmt.Sprintf("critical error: %s cannot be empty", name))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
