package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Values maps property names to captured scalar values. Decoded values are one
// of nil, string, bool, int64, float64, time.Time or uuid.UUID.
type Values map[string]any

const (
	typeNull   = "null"
	typeString = "string"
	typeBool   = "bool"
	typeInt    = "int"
	typeFloat  = "float"
	typeTime   = "time"
	typeUUID   = "uuid"
)

type typedValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Normalize reduces a captured value to its canonical scalar form. Pointers are
// dereferenced and integer widths collapse to int64.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, uuid.UUID:
		return x, nil
	case float64:
		return finite(x)
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float32:
		return finite(float64(x))
	case time.Time:
		return x.UTC(), nil
	case *string:
		return deref(x)
	case *bool:
		return deref(x)
	case *int:
		return derefNormalize(x)
	case *int32:
		return derefNormalize(x)
	case *int64:
		return deref(x)
	case *float64:
		return derefNormalize(x)
	case *time.Time:
		return derefNormalize(x)
	case *uuid.UUID:
		return deref(x)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// finite rejects NaN and infinities, which never compare equal to themselves
// and have no JSON encoding.
func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite float %v", ErrUnsupportedValue, f)
	}
	return f, nil
}

func deref[T any](p *T) (any, error) {
	if p == nil {
		return nil, nil
	}
	return *p, nil
}

func derefNormalize[T any](p *T) (any, error) {
	if p == nil {
		return nil, nil
	}
	return Normalize(*p)
}

// Equal reports whether two normalized values are the same. Times compare by
// instant.
func Equal(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok || bok {
		return aok && bok && ta.Equal(tb)
	}
	return a == b
}

// MarshalJSON encodes every value with an explicit type tag so that int64 and
// time values survive a round trip.
func (v Values) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		tv, err := encodeValue(v[name])
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		val, err := json.Marshal(tv)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (v *Values) UnmarshalJSON(data []byte) error {
	var raw map[string]typedValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for name, tv := range raw {
		val, err := decodeValue(tv)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = val
	}
	*v = out
	return nil
}

// Encode renders values as the stored JSON document. A nil map encodes as {}.
func Encode(v Values) (json.RawMessage, error) {
	if v == nil {
		v = Values{}
	}
	return json.Marshal(v)
}

// Decode parses a stored JSON document. Empty input decodes to an empty map.
func Decode(raw json.RawMessage) (Values, error) {
	out := Values{}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeValue(v any) (typedValue, error) {
	n, err := Normalize(v)
	if err != nil {
		return typedValue{}, err
	}
	var (
		kind    string
		payload any
	)
	switch x := n.(type) {
	case nil:
		return typedValue{Type: typeNull}, nil
	case string:
		kind, payload = typeString, x
	case bool:
		kind, payload = typeBool, x
	case int64:
		kind, payload = typeInt, x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return typedValue{}, fmt.Errorf("%w: non-finite float", ErrUnsupportedValue)
		}
		kind, payload = typeFloat, x
	case time.Time:
		kind, payload = typeTime, x.Format(time.RFC3339Nano)
	case uuid.UUID:
		kind, payload = typeUUID, x.String()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return typedValue{}, err
	}
	return typedValue{Type: kind, Value: b}, nil
}

func decodeValue(tv typedValue) (any, error) {
	switch tv.Type {
	case typeNull:
		return nil, nil
	case typeString:
		var s string
		err := json.Unmarshal(tv.Value, &s)
		return s, err
	case typeBool:
		var b bool
		err := json.Unmarshal(tv.Value, &b)
		return b, err
	case typeInt:
		var i int64
		err := json.Unmarshal(tv.Value, &i)
		return i, err
	case typeFloat:
		var f float64
		err := json.Unmarshal(tv.Value, &f)
		return f, err
	case typeTime:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return nil, err
		}
		return time.Parse(time.RFC3339Nano, s)
	case typeUUID:
		var s string
		if err := json.Unmarshal(tv.Value, &s); err != nil {
			return nil, err
		}
		return uuid.Parse(s)
	}
	return nil, fmt.Errorf("unknown value type %q", tv.Type)
}
