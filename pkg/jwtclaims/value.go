package jwtclaims

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// Kind enumerates the value kinds a claim can hold
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	// KindOpaque covers arrays and nested objects, kept as raw JSON
	KindOpaque
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Value is a single decoded claim
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	raw  json.RawMessage
}

// StringValue builds a string claim
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue builds a numeric claim from its JSON text
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// BoolValue builds a boolean claim
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NullValue builds a null claim
func NullValue() Value { return Value{kind: KindNull} }

// OpaqueValue wraps raw JSON for arrays and objects
func OpaqueValue(raw json.RawMessage) Value {
	return Value{kind: KindOpaque, raw: append(json.RawMessage(nil), raw...)}
}

// Kind reports the value kind
func (v Value) Kind() Kind { return v.kind }

// String returns the string payload
func (v Value) String() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the numeric payload as float64
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.num.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// Number returns the numeric payload as written in the token
func (v Value) Number() (json.Number, bool) {
	return v.num, v.kind == KindNumber
}

// Bool returns the boolean payload
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Raw returns the raw JSON of an opaque value
func (v Value) Raw() (json.RawMessage, bool) {
	return v.raw, v.kind == KindOpaque
}

// Interface converts the value back to plain Go values (string, float64, bool, nil, []any, map[string]any).
// Numbers outside float64 range stay json.Number.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if f, err := v.num.Float64(); err == nil {
			return f
		}
		return v.num
	case KindBool:
		return v.b
	case KindOpaque:
		var out any
		if err := json.Unmarshal(v.raw, &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}

// Display renders the value for humans
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindOpaque:
		return string(v.raw)
	default:
		return "null"
	}
}

// MarshalJSON writes the value back as JSON
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(v.num.String()), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindOpaque:
		return v.raw, nil
	default:
		return []byte("null"), nil
	}
}

// parseValue classifies one raw JSON member
func parseValue(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, errEmptyValue
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case 'n':
		return NullValue(), nil
	case '[', '{':
		return OpaqueValue(trimmed), nil
	default:
		// the payload already parsed as JSON, so the literal is well formed
		return NumberValue(json.Number(trimmed)), nil
	}
}
