package inheritance

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/truwl/capanno-utils/internal/domain"
)

// IsEmpty reports whether v carries no value. Booleans are never empty,
// a list is empty when every item is, and a struct is empty when every
// exported field is.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	return isEmptyValue(reflect.ValueOf(v))
}

func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Bool:
		return false
	case reflect.String:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return isEmptyValue(rv.Elem())
	case reflect.Map:
		return rv.Len() == 0
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if !isEmptyValue(rv.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		t := rv.Type()
		for i := range rv.NumField() {
			if !t.Field(i).IsExported() {
				continue
			}
			if !isEmptyValue(rv.Field(i)) {
				return false
			}
		}
		return true
	default:
		return rv.IsZero()
	}
}

// Fold returns the first non-empty value, so earlier values take
// precedence over later ones.
func Fold[T any](values ...T) T {
	for _, value := range values {
		if !IsEmpty(value) {
			return value
		}
	}
	var zero T
	return zero
}

// Resolve fills each named field of child that is empty with ancestor's
// value for the same field, when that value is not empty. Fields are named
// by their document keys. It returns the names it filled.
func Resolve(child, ancestor any, fields []string) ([]string, error) {
	dst := reflect.ValueOf(child)
	if dst.Kind() != reflect.Pointer || dst.IsNil() || dst.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("resolve inheritance: child must be a non-nil struct pointer, got %T", child)
	}
	dst = dst.Elem()
	src := reflect.ValueOf(ancestor)
	for src.Kind() == reflect.Pointer || src.Kind() == reflect.Interface {
		if src.IsNil() {
			return nil, domain.ErrParentMissing
		}
		src = src.Elem()
	}
	if src.Kind() != reflect.Struct {
		return nil, fmt.Errorf("resolve inheritance: ancestor must be a struct, got %T", ancestor)
	}

	var filled []string
	for _, field := range fields {
		target, ok := fieldByKey(dst, field)
		if !ok {
			return filled, fmt.Errorf("resolve inheritance: %s has no field %q", dst.Type(), field)
		}
		value, ok := fieldByKey(src, field)
		if !ok {
			continue
		}
		if !isEmptyValue(target) || isEmptyValue(value) {
			continue
		}
		if value.Type() != target.Type() {
			return filled, fmt.Errorf("resolve inheritance: field %q is %s on child and %s on ancestor", field, target.Type(), value.Type())
		}
		target.Set(clone(value))
		filled = append(filled, field)
	}
	return filled, nil
}

// fieldByKey finds the struct field whose yaml key is key, looking through
// inlined structs.
func fieldByKey(rv reflect.Value, key string) (reflect.Value, bool) {
	t := rv.Type()
	for i := range rv.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(sf.Tag.Get("yaml"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "inline") && sf.Type.Kind() == reflect.Struct {
			if found, ok := fieldByKey(rv.Field(i), key); ok {
				return found, true
			}
			continue
		}
		if name == key {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func clone(rv reflect.Value) reflect.Value {
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return rv
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out
}
