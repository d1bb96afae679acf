package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metadata is an ordered set of opaque key-value fields carried alongside the
// core fields of papers and triples. Keys keep their insertion order; setting
// an existing key replaces the value in place. The zero value is empty and
// ready to use.
type Metadata struct {
	keys   []string
	values map[string]json.RawMessage
}

// Set stores a string value under key, appending the key if it is new.
func (m *Metadata) Set(key, value string) {
	raw, _ := json.Marshal(value)
	m.SetRaw(key, raw)
}

// SetRaw stores a raw JSON value under key, appending the key if it is new.
func (m *Metadata) SetRaw(key string, raw json.RawMessage) {
	if m.values == nil {
		m.values = make(map[string]json.RawMessage)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(json.RawMessage(nil), raw...)
}

// Get returns the value under key as a string. JSON strings are unquoted;
// any other value is returned in its raw JSON text form.
func (m Metadata) Get(key string) (string, bool) {
	raw, ok := m.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

// Keys returns the field keys in insertion order.
func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of fields.
func (m Metadata) Len() int { return len(m.keys) }

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	var out Metadata
	for _, k := range m.keys {
		out.SetRaw(k, m.values[k])
	}
	return out
}

// Merge returns a copy of m with every field of wins applied on top.
// On a key collision the value from wins replaces the one in m while the key
// keeps its original position. Callers pass extractor-assigned fields as wins
// so they take precedence over caller-supplied ones.
func (m Metadata) Merge(wins Metadata) Metadata {
	out := m.Clone()
	for _, k := range wins.keys {
		out.SetRaw(k, wins.values[k])
	}
	return out
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(m.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving its key order.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("metadata: expected JSON object, got %v", tok)
	}

	m.keys = nil
	m.values = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("metadata: non-string key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		m.SetRaw(key, raw)
	}
	_, err = dec.Token() // closing brace
	return err
}
