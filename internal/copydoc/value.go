// Package copydoc resolves user-facing copy through layered JSON documents.
//
// A remote base document and a remote override document, both keyed by
// language at the top level, are deep-merged into an immutable snapshot.
// Lookups descend the snapshot with explicit kind checks and fall back to a
// caller-supplied literal whenever the value is missing or unusable.
package copydoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// Kind tags the JSON type held by a Value.
type Kind uint8

const (
	// KindAbsent is the zero Value: the key does not exist.
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is an immutable JSON value.
// Numbers keep their literal text so they render exactly as authored.
type Value struct {
	kind Kind
	text string // string contents, or number literal
	b    bool
	obj  map[string]Value
	arr  []Value
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a number value from its JSON literal (e.g., "3", "1.5").
func Number(literal string) Value { return Value{kind: KindNumber, text: literal} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Object returns an object value holding a copy of fields.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: maps.Clone(fields)}
}

// EmptyObject returns {}.
func EmptyObject() Value { return Value{kind: KindObject, obj: map[string]Value{}} }

// Array returns an array value holding a copy of items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// Kind reports the type of v.
func (v Value) Kind() Kind { return v.kind }

// Exists reports whether v is present (any kind but KindAbsent).
func (v Value) Exists() bool { return v.kind != KindAbsent }

// AsString returns the string contents when v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// Scalar renders strings, numbers and booleans as text.
// Objects, arrays, null and absent values report false.
func (v Value) Scalar() (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.text, true
	case KindBool:
		if v.b {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// Field returns the member key of an object. Non-objects yield an absent value.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.obj[key]
}

// Index returns the i-th array element. Non-arrays and out-of-range indexes yield an absent value.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Len returns the number of members of an object or elements of an array.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.obj)
	case KindArray:
		return len(v.arr)
	default:
		return 0
	}
}

// Keys returns the sorted member names of an object.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return slices.Sorted(maps.Keys(v.obj))
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString, KindNumber:
		return v.text == o.text
	case KindBool:
		return v.b == o.b
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, a := range v.obj {
			b, ok := o.obj[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	case KindArray:
		return slices.EqualFunc(v.arr, o.arr, Value.Equal)
	default:
		return true
	}
}

// MarshalJSON encodes v. Absent values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.obj[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

// Parse decodes a raw JSON document.
// A blank payload is an empty object. Trailing data after the first value is an error.
func Parse(raw string) (Value, error) {
	if strings.TrimSpace(raw) == "" {
		return EmptyObject(), nil
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("failed to parse document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("failed to parse document: unexpected trailing data")
	}
	return v, nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(raw string) Value {
	v, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := map[string]Value{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj[key] = val
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return Value{}, err
			}
			return Value{kind: KindObject, obj: obj}, nil
		case '[':
			var arr []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return Value{}, err
			}
			return Value{kind: KindArray, arr: arr}, nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}
