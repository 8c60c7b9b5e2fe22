package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Value is a loosely typed scalar reported by device firmware. The API
// server passes firmware fields through untouched, so the same field may
// arrive as a number, a string, a boolean or null depending on the board.
type Value struct {
	raw json.RawMessage
}

// NewValue wraps an already encoded JSON scalar.
func NewValue(raw string) Value {
	return Value{raw: json.RawMessage(raw)}
}

// StringValue builds a Value holding a JSON string.
func StringValue(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: b}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// IsZero reports whether the value is falsy: missing, null, false, an
// empty string or a numeric zero.
func (v Value) IsZero() bool {
	raw := bytes.TrimSpace(v.raw)
	if len(raw) == 0 {
		return true
	}
	switch raw[0] {
	case 'n', 'f':
		return true
	case 't':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return true
		}
		return s == ""
	case '{', '[':
		return false
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	return err != nil || f == 0
}

// String returns the display form of the value. Strings are unquoted,
// numbers are printed in their shortest form and null is empty.
func (v Value) String() string {
	raw := bytes.TrimSpace(v.raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case 'n':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case 't', 'f', '{', '[':
		return string(raw)
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}

// OrDash returns the display form, or "-" when the value is falsy.
func (v Value) OrDash() string {
	if v.IsZero() {
		return "-"
	}
	return v.String()
}
