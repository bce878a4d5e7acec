package internal

import (
	"reflect"
	"strconv"
)

// Scalar is the set of types route and query values convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the value stored under key with Context.Set, or the
// zero value when it is missing or of another type.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param returns the i-th positional param converted to T, or the zero value.
//
//	id := relay.Param[int64](c, 0) // "/users/42" on the users controller
func Param[T Scalar](c Context, i int) T {
	var zero T
	return ParamDefault(c, i, zero)
}

// ParamDefault is Param with a fallback for missing or malformed params.
func ParamDefault[T Scalar](c Context, i int, def T) T {
	return parseOr(c.Param(i), def)
}

// Query returns the named query value converted to T, or the zero value.
func Query[T Scalar](c Context, name string) T {
	var zero T
	return QueryDefault(c, name, zero)
}

// QueryDefault is Query with a fallback for missing or malformed values.
func QueryDefault[T Scalar](c Context, name string, def T) T {
	return parseOr(c.Query(name), def)
}

// parseOr converts raw to T by kind, so named types such as
// "type Slug string" work too. Empty or unparsable input yields def.
func parseOr[T Scalar](raw string, def T) T {
	if raw == "" {
		return def
	}
	var v T
	rv := reflect.ValueOf(&v).Elem()
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, rv.Type().Bits())
		if err != nil {
			return def
		}
		rv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return def
		}
		rv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return def
		}
		rv.SetBool(b)
	default:
		return def
	}
	return v
}
