package media

import (
	"encoding/json"
	"strconv"
)

// Opt is an optional numeric attribute. The zero value is unknown.
type Opt[T ~int | ~int64] struct {
	value T
	known bool
}

// Int is an optional int attribute.
type Int = Opt[int]

// Int64 is an optional int64 attribute.
type Int64 = Opt[int64]

// Some returns a known value.
func Some[T ~int | ~int64](v T) Opt[T] {
	return Opt[T]{value: v, known: true}
}

// Known reports whether the value is present.
func (o Opt[T]) Known() bool { return o.known }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.value, o.known }

// Or returns the value when present and fallback otherwise.
func (o Opt[T]) Or(fallback T) T {
	if o.known {
		return o.value
	}
	return fallback
}

func (o Opt[T]) String() string {
	if !o.known {
		return "unknown"
	}
	return strconv.FormatInt(int64(o.value), 10)
}

// MarshalJSON renders unknown values as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON accepts a number or null.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
