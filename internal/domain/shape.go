package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// shape is the layout of a JSON object as it was read: its key order and the
// raw value of every key readmehub does not model. Objects are written back
// in the same layout, so a document written by another tool survives a load
// and a save byte for byte.
//
// A nil shape belongs to an object built in-process. A shape is never
// modified once read; copies share it.
type shape struct {
	keys  []string
	extra map[string]json.RawMessage
}

// field is one modelled key of an object being written.
type field struct {
	key   string
	value any
	zero  bool // value is the zero value for its type
	// optional fields are left out of in-process objects while zero.
	optional bool
}

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// readShape records the key order of the object in data and keeps the raw
// value of keys not in known. A repeated key keeps its first position and
// its last value.
func readShape(data []byte, known map[string]bool) (*shape, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}

	s := &shape{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if !s.has(key) {
			s.keys = append(s.keys, key)
		}
		if !known[key] {
			if s.extra == nil {
				s.extra = make(map[string]json.RawMessage)
			}
			s.extra[key] = raw
		}
	}
	return s, nil
}

func (s *shape) has(key string) bool {
	return s != nil && slices.Contains(s.keys, key)
}

// with returns a shape that also lists key, after the existing ones. It is
// used when a modelled key is assigned on an object that was read without it.
func (s *shape) with(key string) *shape {
	if s == nil || s.has(key) {
		return s
	}
	return &shape{keys: append(slices.Clip(s.keys), key), extra: s.extra}
}

// write encodes an object. Keys that were read come first, in their original
// order, with unknown ones copied verbatim. Modelled keys that were not read
// follow in the order given; on a read object they are left out while zero.
func (s *shape) write(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	emit := func(key string, value any) error {
		k, err := marshalJSON(key)
		if err != nil {
			return err
		}
		v, ok := value.(json.RawMessage)
		if !ok {
			if v, err = marshalJSON(value); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		n++
		return nil
	}

	if s != nil {
		for _, key := range s.keys {
			i := slices.IndexFunc(fields, func(f field) bool { return f.key == key })
			var err error
			switch {
			case i >= 0:
				err = emit(key, fields[i].value)
			case s.extra[key] != nil:
				err = emit(key, s.extra[key])
			}
			if err != nil {
				return nil, err
			}
		}
	}
	for _, f := range fields {
		if s.has(f.key) || (f.zero && (s != nil || f.optional)) {
			continue
		}
		if err := emit(f.key, f.value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSON encodes v without escaping HTML, matching how the document is
// persisted.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
