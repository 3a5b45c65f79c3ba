package security

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type valueKind uint8

const (
	kindAbsent valueKind = iota
	kindNull
	kindString
	kindNumber
	kindBool
)

// Value is a scalar exactly as the API sent it: a string, number, bool, null
// or nothing at all. The API mixes "1", 1 and true for the same flag, so
// nothing is coerced at decode time.
type Value struct {
	kind valueKind
	text string
}

// Str builds a string value.
func Str(s string) Value { return Value{kind: kindString, text: s} }

// Num builds a numeric value from its literal.
func Num(literal string) Value { return Value{kind: kindNumber, text: literal} }

// Int builds a numeric value.
func Int(n int) Value { return Num(strconv.Itoa(n)) }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{kind: kindBool, text: strconv.FormatBool(b)} }

// Null is an explicit JSON null.
func Null() Value { return Value{kind: kindNull} }

// Present reports whether the value was sent and is not null.
func (v Value) Present() bool {
	return v.kind != kindAbsent && v.kind != kindNull
}

// String returns the textual form; empty for absent or null values.
func (v Value) String() string {
	return v.text
}

// Flag interprets the value as a boolean. 1, "1" and true are true; 0, "0"
// and false are false. ok is false for anything else.
func (v Value) Flag() (set bool, ok bool) {
	switch v.kind {
	case kindBool:
		return v.text == "true", true
	case kindString, kindNumber:
		switch v.text {
		case "1":
			return true, true
		case "0":
			return false, true
		}
	}
	return false, false
}

// Or returns v when it is present and not an empty string, otherwise def.
func (v Value) Or(def Value) Value {
	if v.Present() && !(v.kind == kindString && v.text == "") {
		return v
	}
	return def
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0:
		*v = Value{}
	case string(b) == "null":
		*v = Null()
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Str(s)
	case string(b) == "true" || string(b) == "false":
		*v = Bool(string(b) == "true")
	case b[0] == '{' || b[0] == '[':
		// Objects where a scalar was expected are kept as raw text.
		*v = Str(string(b))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = Num(n.String())
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.text)
	case kindNumber, kindBool:
		return []byte(v.text), nil
	default:
		return []byte("null"), nil
	}
}

// IsZero lets encoding/json omit absent values with omitzero.
func (v Value) IsZero() bool {
	return v.kind == kindAbsent
}
