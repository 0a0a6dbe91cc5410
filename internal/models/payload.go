package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one entry of a Payload. Value holds the raw JSON value so that
// numbers, strings and nulls survive storage without re-encoding.
type Field struct {
	Name  string
	Value json.RawMessage
}

// Payload is an ordered field-name -> value snapshot. It encodes as a JSON
// object in insertion order.
type Payload []Field

func (p Payload) Get(name string) (json.RawMessage, bool) {
	for _, f := range p {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (p Payload) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

func (p Payload) Names() []string {
	names := make([]string, len(p))
	for i, f := range p {
		names[i] = f.Name
	}
	return names
}

// Float decodes a numeric field.
func (p Payload) Float(name string) (float64, bool) {
	raw, ok := p.Get(name)
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		if !json.Valid(f.Value) {
			return nil, fmt.Errorf("payload field %q: invalid json value", f.Name)
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("payload must be a json object")
	}

	out := Payload{}
	seen := map[string]struct{}{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("payload key must be a string")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("payload field %q repeated", name)
		}
		seen[name] = struct{}{}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		out = append(out, Field{Name: name, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}
