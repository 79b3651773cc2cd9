package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single header/cell pair of a Record. A nil Value means the
// source row had no cell at the header's column.
type Field struct {
	Name  string
	Value *string
}

// Record is one agenda row keyed by the caller's required headers.
// Field order follows the header order the record was built with.
// Records are never mutated after construction.
type Record struct {
	fields []Field
}

// Cell returns a pointer to s, for building Fields.
func Cell(s string) *string {
	return &s
}

// NewRecord creates a Record from fields, copying them.
func NewRecord(fields ...Field) Record {
	copied := make([]Field, len(fields))
	for i, f := range fields {
		copied[i] = Field{Name: f.Name}
		if f.Value != nil {
			copied[i].Value = Cell(*f.Value)
		}
	}
	return Record{fields: copied}
}

// FromMap builds a Record with the given key order from a plain map.
// Keys missing from values become null fields.
func FromMap(keys []string, values map[string]string) Record {
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		f := Field{Name: k}
		if v, ok := values[k]; ok {
			f.Value = Cell(v)
		}
		fields = append(fields, f)
	}
	return Record{fields: fields}
}

// Keys returns the header names in order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns a copy of the record's fields.
func (r Record) Fields() []Field {
	return NewRecord(r.fields...).fields
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Lookup returns the value stored under name. present is false when the
// record has no such header; value is nil when the header is present but null.
func (r Record) Lookup(name string) (value *string, present bool) {
	for _, f := range r.fields {
		if f.Name == name {
			if f.Value == nil {
				return nil, true
			}
			return Cell(*f.Value), true
		}
	}
	return nil, false
}

// Get returns the text stored under name. ok is false when the header is
// absent or null.
func (r Record) Get(name string) (string, bool) {
	v, _ := r.Lookup(name)
	if v == nil {
		return "", false
	}
	return *v, true
}

// GetOr returns the text stored under name, or fallback when absent or null.
func (r Record) GetOr(name, fallback string) string {
	if v, ok := r.Get(name); ok {
		return v
	}
	return fallback
}

// MarshalJSON encodes the record as a flat object, keeping field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if f.Value == nil {
			buf.WriteString("null")
			continue
		}
		val, err := marshalNoEscape(*f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat object, keeping key order. Non-string scalar
// values are kept as their JSON text.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decoding record: expected object, got %v", tok)
	}

	var fields []Field
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding record key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decoding record: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding value of %q: %w", name, err)
		}

		f := Field{Name: name}
		raw = bytes.TrimSpace(raw)
		switch {
		case bytes.Equal(raw, []byte("null")):
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("decoding value of %q: %w", name, err)
			}
			f.Value = Cell(s)
		case len(raw) > 0 && (raw[0] == '{' || raw[0] == '['):
			return fmt.Errorf("decoding value of %q: nested values are not supported", name)
		default:
			f.Value = Cell(string(raw))
		}

		if i, dup := index[name]; dup {
			fields[i] = f
			continue
		}
		index[name] = len(fields)
		fields = append(fields, f)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	r.fields = fields
	return nil
}

// marshalNoEscape encodes s as a JSON string without HTML escaping.
func marshalNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
