package datasource

import (
	"fmt"
	"reflect"
)

// Criterion selects records. It is either a literal filter value or a thunk
// producing one; thunks are evaluated on every Resolve and never cached.
type Criterion struct {
	value interface{}
	thunk func() interface{}
}

// Literal wraps a fixed filter value.
func Literal(v interface{}) Criterion {
	return Criterion{value: v}
}

// Lazy wraps a function evaluated each time the criterion is resolved.
func Lazy(fn func() interface{}) Criterion {
	return Criterion{thunk: fn}
}

// Where is shorthand for a field-equality literal.
func Where(fields Record) Criterion {
	return Literal(fields)
}

// IsZero reports whether the criterion carries neither value nor thunk.
func (c Criterion) IsZero() bool {
	return c.value == nil && c.thunk == nil
}

// IsLazy reports whether the criterion is a thunk.
func (c Criterion) IsLazy() bool {
	return c.thunk != nil
}

// Resolve returns the filter value, calling the thunk if there is one.
func (c Criterion) Resolve() interface{} {
	if c.thunk != nil {
		return c.thunk()
	}
	return c.value
}

// String renders the criterion for log lines without evaluating thunks.
func (c Criterion) String() string {
	if c.thunk != nil {
		return "<lazy>"
	}
	return fmt.Sprintf("%v", c.value)
}

// Or returns c unless it is zero, in which case fallback is returned.
func (c Criterion) Or(fallback Criterion) Criterion {
	if c.IsZero() {
		return fallback
	}
	return c
}

// Match evaluates a resolved filter against a record in memory. A nil filter
// matches everything, a Record matches by field equality and a predicate
// function is called directly.
func Match(filter interface{}, rec interface{}) bool {
	switch f := filter.(type) {
	case nil:
		return true
	case func(Record) bool:
		r, ok := rec.(Record)
		return ok && f(r)
	case Record:
		r, ok := rec.(Record)
		if !ok {
			return len(f) == 0
		}
		for k, want := range f {
			got, exists := r[k]
			if !exists || !equal(got, want) {
				return false
			}
		}
		return true
	default:
		return equal(filter, rec)
	}
}

func equal(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return okA && okB && fa == fb
}

// toFloat lets JSON-decoded numbers match Go integer literals.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
