package botapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// keyAliases lets callers reach keys that are reserved words in some
// languages. Aliases are resolved only when the key itself is absent.
var keyAliases = map[string]string{
	"_from": "from",
}

// Dict is a JSON object that remembers the order of its keys.
//
// Values are nil, bool, string, json.Number, []any or *Dict.
type Dict struct {
	keys   []string
	values map[string]any
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{
		values: make(map[string]any),
	}
}

// Set stores value under key. Overwriting keeps the original position.
func (d *Dict) Set(key string, value any) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key or under the key it aliases.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}

	if value, ok := d.values[key]; ok {
		return value, true
	}

	if target, ok := keyAliases[key]; ok {
		value, ok := d.values[target]
		return value, ok
	}

	return nil, false
}

// Has reports whether Get would find key.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}

	return append([]string(nil), d.keys...)
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}

	return len(d.keys)
}

// String returns the string stored under key.
func (d *Dict) String(key string) (string, bool) {
	value, ok := d.Get(key)
	if !ok {
		return "", false
	}

	s, ok := value.(string)
	return s, ok
}

// Int64 returns the integer stored under key.
func (d *Dict) Int64(key string) (int64, bool) {
	value, ok := d.Get(key)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean stored under key.
func (d *Dict) Bool(key string) (bool, bool) {
	value, ok := d.Get(key)
	if !ok {
		return false, false
	}

	b, ok := value.(bool)
	return b, ok
}

// Dict returns the nested object stored under key.
func (d *Dict) Dict(key string) (*Dict, bool) {
	value, ok := d.Get(key)
	if !ok {
		return nil, false
	}

	nested, ok := value.(*Dict)
	return nested, ok
}

// List returns the array stored under key.
func (d *Dict) List(key string) ([]any, bool) {
	value, ok := d.Get(key)
	if !ok {
		return nil, false
	}

	list, ok := value.([]any)
	return list, ok
}

// MarshalJSON encodes d keeping the key order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", key, err)
		}
		encodedValue, err := json.Marshal(d.values[key])
		if err != nil {
			return nil, fmt.Errorf("marshal value of %q: %w", key, err)
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into d.
func (d *Dict) UnmarshalJSON(data []byte) error {
	value, err := decodeValue(data)
	if err != nil {
		return err
	}

	decoded, ok := value.(*Dict)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", value)
	}

	*d = *decoded

	return nil
}

// Decode re-encodes d into out, typically one of the telego types.
func (d *Dict) Decode(out any) error {
	return decodeInto(d, out)
}

func decodeInto(value, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("unmarshal into %T: %w", out, err)
	}

	return nil
}

var errTrailingData = errors.New("unexpected data after top-level value")

// decodeValue decodes JSON turning objects into *Dict and arrays into []any.
func decodeValue(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	value, err := decodeNext(decoder)
	if err != nil {
		return nil, err
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return value, nil
}

func decodeNext(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	delim, ok := token.(json.Delim)
	if !ok {
		return token, nil
	}

	switch delim {
	case '{':
		dict := NewDict()
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, fmt.Errorf("read object key: %w", err)
			}

			key, ok := keyToken.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyToken)
			}

			value, err := decodeNext(decoder)
			if err != nil {
				return nil, err
			}

			dict.Set(key, value)
		}

		return dict, closeDelim(decoder)
	case '[':
		list := make([]any, 0)
		for decoder.More() {
			value, err := decodeNext(decoder)
			if err != nil {
				return nil, err
			}

			list = append(list, value)
		}

		return list, closeDelim(decoder)
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

func closeDelim(decoder *json.Decoder) error {
	_, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("read closing delimiter: %w", err)
	}

	return nil
}
