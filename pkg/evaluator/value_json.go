package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// ValueToJSON marshals a Value to JSON bytes.
// Objects preserve key order. Numbers output integers without decimal point.
func ValueToJSON(v Value) ([]byte, error) {
	raw, err := valueToRaw(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// ValueToJSONString is a convenience that returns a string, or "null" when
// the value cannot be encoded.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case Null:
		return nil, nil

	case Bool:
		return val.Value, nil

	case Number:
		if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
			return nil, fmt.Errorf("cannot encode %s as JSON", FormatNumber(val.Value))
		}
		// Output integers without decimal point
		if val.Value == math.Trunc(val.Value) && math.Abs(val.Value) < 1<<53 {
			return int64(val.Value), nil
		}
		return val.Value, nil

	case String:
		return val.Value, nil

	case *List:
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			raw, err := valueToRaw(item)
			if err != nil {
				return nil, err
			}
			items[i] = raw
		}
		return items, nil

	case *Object:
		return val, nil
	}

	return nil, fmt.Errorf("cannot encode %s as JSON", v.Type())
}

// MarshalJSON encodes the object with its keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if len(o.Pairs) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, kv := range o.Pairs {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		raw, err := valueToRaw(kv.Value)
		if err != nil {
			return nil, err
		}
		valBytes, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// ParseJSON decodes a single JSON document into a Value. Object keys keep
// their document order.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return NewNumber(f), nil
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewList(items), nil
		case '{':
			obj := NewObject(nil)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("invalid object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}
