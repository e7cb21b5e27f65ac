// Package value implements the dynamic data tree that template directives
// are evaluated against: a small tagged union produced by decoding JSON,
// never mutated once built.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which alternative of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindArray
	KindObject
)

// Value is a dynamic JSON-shaped tree node. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	// obj preserves insertion order; keys is the order, fields the lookup.
	keys   []string
	fields map[string]Value
}

// Null is the canonical Null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }

func Array(items []Value) Value {
	return Value{kind: KindArray, arr: items}
}

// NewObject builds an Object from keys in the given order, with fields
// holding each key's value. keys is used as given and is not deduplicated;
// Parse is what keeps a repeated JSON key at its first position with its
// last value.
func NewObject(keys []string, fields map[string]Value) Value {
	return Value{kind: KindObject, keys: keys, fields: fields}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsFloat returns the numeric value of an Integer or Float, else (0, false).
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Keys returns object keys in insertion order, or nil if v is not an Object.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return v.keys
}

// Get performs exact, case-sensitive key lookup on an Object. Returns Null
// if v is not an Object or the key is absent.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Null
	}
	if f, ok := v.fields[key]; ok {
		return f
	}
	return Null
}

// GetCI performs case-insensitive key lookup, used only by the image-object
// reader; general path resolution stays case-sensitive.
func (v Value) GetCI(key string) (Value, bool) {
	if v.kind != KindObject {
		return Null, false
	}
	for _, k := range v.keys {
		if strings.EqualFold(k, key) {
			return v.fields[k], true
		}
	}
	return Null, false
}

// Index returns the element at i, or Null if out of range or v is not an Array.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Null
	}
	return v.arr[i]
}

// Len returns the Array/Object/String length used by the count operator.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	case KindString:
		return len([]rune(v.s))
	default:
		return 0
	}
}

// Native converts v into a plain Go value (map[string]any / []any / string /
// float64 / int64 / bool / nil), the representation used for JSON
// marshaling and for comparing values in tests.
func (v Value) Native() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Native()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.keys))
		for _, k := range v.keys {
			out[k] = v.fields[k].Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative wraps a plain Go value (e.g. application code constructing a
// root context manually) back into a Value.
func FromNative(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case int:
		return Integer(int64(x))
	case int64:
		return Integer(x)
	case json.Number:
		return numberFromJSON(x)
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			items[i] = FromNative(e)
		}
		return Array(items)
	case []Value:
		return Array(x)
	case map[string]any:
		keys := make([]string, 0, len(x))
		fields := make(map[string]Value, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys) // no stable order exists for a plain map; sort for determinism
		for _, k := range keys {
			fields[k] = FromNative(x[k])
		}
		return NewObject(keys, fields)
	default:
		return String(fmt.Sprint(x))
	}
}

func numberFromJSON(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Integer(i)
	}
	f, _ := n.Float64()
	return Float(f)
}

// Parse decodes a JSON document into a Value tree, preserving object key
// insertion order and distinguishing integers from floats (plain
// json.Unmarshal into `any` collapses every number into float64, which
// would break the Integer/Float split this Value union requires).
func Parse(data []byte) (Value, error) {
	v, err := decodeOrdered(json.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return Null, fmt.Errorf("value: parse json: %w", err)
	}
	return v, nil
}

// decodeOrdered re-decodes the document token-by-token to preserve object
// key order, which encoding/json's map[string]any path does not guarantee.
func decodeOrdered(dec *json.Decoder) (Value, error) {
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return Null, err
	}
	return decodeValue(dec, tok)
}

func decodeValue(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberFromJSON(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				elTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				el, err := decodeValue(dec, elTok)
				if err != nil {
					return Null, err
				}
				items = append(items, el)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Null, err
			}
			return Array(items), nil
		case '{':
			var keys []string
			fields := make(map[string]Value)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				key, _ := keyTok.(string)
				valTok, err := dec.Token()
				if err != nil {
					return Null, err
				}
				val, err := decodeValue(dec, valTok)
				if err != nil {
					return Null, err
				}
				if _, exists := fields[key]; !exists {
					keys = append(keys, key)
				}
				fields[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Null, err
			}
			return NewObject(keys, fields), nil
		}
	}
	return Null, fmt.Errorf("value: unexpected token %v", tok)
}

// Truthy reports whether v counts as true in a conditional directive: Null,
// false, zero, an empty or whitespace-only string, and an empty
// Array/Object are all falsy;
// everything else is truthy.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindString:
		return strings.TrimSpace(v.s) != ""
	case KindInteger:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return len(v.keys) > 0
	default:
		return true
	}
}

// ToText renders v as the text substituted into a document: Null becomes
// "", a string is passed through unchanged, numbers use their plain decimal
// form, bools become "True"/"False", and Array/Object marshal to JSON.
func ToText(v Value) string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.s
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloatTrim(v.f)
	case KindArray, KindObject:
		var buf bytes.Buffer
		writeJSON(&buf, v)
		return buf.String()
	default:
		return ""
	}
}

// writeJSON marshals v to JSON directly off the Value tree rather than
// through Native, so an Object's authored key order survives into the text
// (encoding/json sorts map[string]any keys, which would discard it).
func writeJSON(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		b, _ := json.Marshal(v.f)
		buf.Write(b)
	case KindString:
		b, _ := json.Marshal(v.s)
		buf.Write(b)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSON(buf, e)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			writeJSON(buf, v.fields[k])
		}
		buf.WriteByte('}')
	}
}

func formatFloatTrim(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// Compare orders two values for sort/maxby/minby: Null sorts before
// non-Null; numeric values compare numerically; else both are tried as
// DateTime; else they're compared as case-insensitive text.
func Compare(a, b Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	at, aok := asTime(a)
	bt, bok := asTime(b)
	if aok && bok {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}
	as := strings.ToLower(ToText(a))
	bs := strings.ToLower(ToText(b))
	return strings.Compare(as, bs)
}

// dateLayouts are tried in order when parsing a string as a DateTime.
// RFC3339 covers the common round-trip ISO-8601 case; the rest cover
// common locale-free date-only/second-precision forms.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func asTime(v Value) (time.Time, bool) {
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime exposes asTime for the format operator.
func ParseTime(v Value) (time.Time, bool) { return asTime(v) }

// Clone deep-copies v. Arrays/Objects produced by sort/take must not alias
// the caller's tree since operators may be chained.
func Clone(v Value) Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, len(v.arr))
		for i, e := range v.arr {
			items[i] = Clone(e)
		}
		return Array(items)
	case KindObject:
		keys := make([]string, len(v.keys))
		copy(keys, v.keys)
		fields := make(map[string]Value, len(v.fields))
		for k, f := range v.fields {
			fields[k] = Clone(f)
		}
		return NewObject(keys, fields)
	default:
		return v
	}
}
