package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MarshalJSON encodes t keeping map keys in their enumeration order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeJSON(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, t *Tree) error {
	if t == nil {
		buf.WriteString("null")
		return nil
	}
	switch t.Kind {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		if t.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case NumberKind:
		b, err := json.Marshal(t.Number)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTree, err)
		}
		buf.Write(b)
	case StringKind:
		b, _ := json.Marshal(t.String)
		buf.Write(b)
	case ListKind:
		buf.WriteByte('[')
		for i, v := range t.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSON(buf, v); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case MapKind:
		buf.WriteByte('{')
		for i, k := range t.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, _ := json.Marshal(k)
			buf.Write(b)
			buf.WriteByte(':')
			if err := encodeJSON(buf, t.Values[i]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidTree, t.Kind)
	}
	return nil
}

// UnmarshalJSON decodes a JSON document into t, keeping object keys in
// document order. A key repeated in one object keeps its first position and
// its last value.
func (t *Tree) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*t = *parsed
	return nil
}

// ParseJSON decodes exactly one JSON document.
func ParseJSON(data []byte) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	t, err := decodeJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTree, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidTree)
	}
	return t, nil
}

func decodeJSON(dec *json.Decoder) (*Tree, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(v), nil
	case string:
		return FromString(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", v, err)
		}
		return FromNumber(f), nil
	case json.Delim:
		switch v {
		case '{':
			t := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				t.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return t, nil
		case '[':
			t := NewList()
			for dec.More() {
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				t.Append(value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}
