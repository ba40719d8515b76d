package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number is a numeric field that never fails to decode: numbers and numeric
// strings are read, anything else (null, objects, garbage) becomes 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(v)
		}
		return nil
	}

	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		*n = Number(v)
	}
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// OptionalNumber keeps the difference between "absent/non-numeric" and 0.
// Only real JSON numbers are accepted.
type OptionalNumber struct {
	Value float64
	Valid bool
}

func (n *OptionalNumber) UnmarshalJSON(data []byte) error {
	*n = OptionalNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || data[0] == '{' || data[0] == '[' {
		return nil
	}
	if v, err := strconv.ParseFloat(string(data), 64); err == nil {
		n.Value = v
		n.Valid = true
	}
	return nil
}

// Text decodes strings, numbers and booleans as text; null and composites become "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*t = Text(s)
		}
	case '{', '[':
	default:
		*t = Text(string(data))
	}
	return nil
}

func (t Text) String() string { return string(t) }

// unwrapList accepts either a bare JSON array or an object carrying the array
// under one of keys (e.g. {"data": [...]}).
func unwrapList(raw json.RawMessage, keys ...string) (json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("[]"), true
	}
	if raw[0] == '[' {
		return raw, true
	}
	if raw[0] != '{' {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return unwrapList(v)
		}
	}
	return nil, false
}

// unwrapObject accepts an object optionally wrapped in {"data": {...}}.
func unwrapObject(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	if inner, ok := obj["data"]; ok && len(obj) <= 3 {
		inner = bytes.TrimSpace(inner)
		if len(inner) > 0 && inner[0] == '{' {
			return inner
		}
	}
	return raw
}
