package jetschema

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Object is an insertion-ordered JSON object as materialized by the engine.
// Keys iterate in document order of first occurrence; a later assignment to
// an existing key replaces the value but keeps the original position. The
// orderings are contractual.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set assigns v to key, recording first-occurrence order.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value for key and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Value returns the value for key, or nil when absent.
func (o *Object) Value(key string) any { return o.values[key] }

// Len returns the number of distinct keys.
func (o *Object) Len() int { return len(o.keys) }

// Keys returns the keys in document order. The slice is shared; callers must
// not mutate it.
func (o *Object) Keys() []string { return o.keys }

// Range calls fn for each key/value pair in document order until fn returns
// false.
func (o *Object) Range(fn func(key string, v any) bool) {
	for _, k := range o.keys {
		if !fn(k, o.values[k]) {
			return
		}
	}
}

// MarshalJSON emits the object with keys in document order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// appendFingerprint renders a materialized value into the textual form used
// for uniqueItems comparison. The coercion is loose: strings render without
// quotes, so 1 and "1" collide.
func appendFingerprint(dst []byte, v any) []byte {
	switch t := v.(type) {
	case nil:
		return append(dst, "null"...)
	case bool:
		if t {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case string:
		return append(dst, t...)
	case int64:
		return strconv.AppendInt(dst, t, 10)
	case float64:
		return strconv.AppendFloat(dst, t, 'g', -1, 64)
	case []any:
		dst = append(dst, '[')
		for i, e := range t {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendFingerprint(dst, e)
		}
		return append(dst, ']')
	case *Object:
		dst = append(dst, '{')
		first := true
		t.Range(func(k string, vv any) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = append(dst, k...)
			dst = append(dst, ':')
			dst = appendFingerprint(dst, vv)
			return true
		})
		return append(dst, '}')
	default:
		return dst
	}
}
