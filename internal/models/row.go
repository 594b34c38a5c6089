package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Row is one scraped table row: column header -> cell text. Column order
// follows the source table, so the zero map type is not enough; keys are
// tracked separately and JSON round-trips preserve their order.
type Row struct {
	keys   []string
	values map[string]string
}

func NewRow() *Row {
	return &Row{values: make(map[string]string)}
}

// Set stores a cell value. First write of a key fixes its position.
func (r *Row) Set(key, value string) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r *Row) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Value returns the cell for key, or "" when the column is absent.
func (r *Row) Value(key string) string {
	return r.values[key]
}

// Keys returns the column headers in source order. The caller must not
// mutate the returned slice.
func (r *Row) Keys() []string {
	return r.keys
}

func (r *Row) Len() int {
	return len(r.keys)
}

func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]string)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case string:
			r.Set(key, v)
		case json.Number:
			r.Set(key, v.String())
		case bool:
			r.Set(key, fmt.Sprintf("%t", v))
		case nil:
			r.Set(key, "")
		default:
			return fmt.Errorf("row: value for %q is not a scalar", key)
		}
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Snapshot is the full set of rows produced by one ingest call, in source
// order. Snapshots are immutable once published.
type Snapshot []*Row

// Clone returns a copy of the snapshot slice. Rows are shared; the copy is
// for reordering (ranking) without touching the published snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
