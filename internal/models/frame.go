package models

import (
	"fmt"
	"strings"
)

// Frame is a column-oriented table of extracted values. All columns have equal
// length and row order mirrors source order, which for job boards is
// newest-first. Change detection depends on that ordering.
type Frame struct {
	fields []string
	cols   map[string][]string
	length int
}

// NewFrame builds a frame from extracted columns. Unknown column names are
// rejected and all columns must have equal length. Columns are stored in
// canonical field order.
func NewFrame(cols map[string][]string) (*Frame, error) {
	f := &Frame{cols: make(map[string][]string, len(cols))}

	length := -1
	for _, field := range CanonicalFields {
		values, ok := cols[field]
		if !ok {
			continue
		}
		if length == -1 {
			length = len(values)
		} else if len(values) != length {
			return nil, fmt.Errorf("frame: column %s has %d values, expected %d", field, len(values), length)
		}
		f.fields = append(f.fields, field)
		f.cols[field] = values
	}

	for name := range cols {
		if _, ok := f.cols[name]; !ok {
			return nil, fmt.Errorf("frame: unknown column %q", name)
		}
	}

	if length < 0 {
		length = 0
	}
	f.length = length
	return f, nil
}

// EmptyLike returns an empty frame with the same column set as f.
func EmptyLike(f *Frame) *Frame {
	out := &Frame{cols: make(map[string][]string, len(f.fields))}
	out.fields = append(out.fields, f.fields...)
	for _, field := range f.fields {
		out.cols[field] = nil
	}
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.length }

// IsEmpty reports whether the frame has no rows.
func (f *Frame) IsEmpty() bool { return f.length == 0 }

// Fields returns the present columns in canonical order.
func (f *Frame) Fields() []string { return f.fields }

// HasColumn reports whether the named column is present.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Column returns the values of the named column, or nil if absent.
func (f *Frame) Column(name string) []string { return f.cols[name] }

// SetColumn replaces the values of an existing column in place.
func (f *Frame) SetColumn(name string, values []string) error {
	if _, ok := f.cols[name]; !ok {
		return fmt.Errorf("frame: column %q not present", name)
	}
	if len(values) != f.length {
		return fmt.Errorf("frame: column %s has %d values, expected %d", name, len(values), f.length)
	}
	f.cols[name] = values
	return nil
}

// Row returns a horizontal slice across all columns at index i.
func (f *Frame) Row(i int) Row {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field] = f.cols[field][i]
	}
	return Row{fields: f.fields, values: values}
}

// Rows materializes every row in order.
func (f *Frame) Rows() []Row {
	rows := make([]Row, 0, f.length)
	for i := 0; i < f.length; i++ {
		rows = append(rows, f.Row(i))
	}
	return rows
}

// Filter returns a new frame containing only rows for which keep returns true,
// preserving order.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	out := EmptyLike(f)
	for i := 0; i < f.length; i++ {
		if !keep(i) {
			continue
		}
		for _, field := range f.fields {
			out.cols[field] = append(out.cols[field], f.cols[field][i])
		}
		out.length++
	}
	return out
}

// Head returns a new frame holding rows [0, n).
func (f *Frame) Head(n int) *Frame {
	if n > f.length {
		n = f.length
	}
	out := EmptyLike(f)
	for _, field := range f.fields {
		out.cols[field] = f.cols[field][:n]
	}
	out.length = n
	return out
}

// Row is one record sliced across a frame's columns.
type Row struct {
	fields []string
	values map[string]string
}

// NewRow builds a standalone row; used by tests and the gateway retry path.
func NewRow(values map[string]string) Row {
	fields := make([]string, 0, len(values))
	for _, field := range CanonicalFields {
		if _, ok := values[field]; ok {
			fields = append(fields, field)
		}
	}
	return Row{fields: fields, values: values}
}

// Get returns the row's value for the field, or "" if absent.
func (r Row) Get(field string) string { return r.values[field] }

// Has reports whether the row carries the field.
func (r Row) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Fingerprint returns a stable stringified representation of the row's values
// in canonical field order. The top row's fingerprint is what the change
// tracker stores between cycles.
func (r Row) Fingerprint() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, field := range r.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q", r.values[field])
	}
	b.WriteByte(']')
	return b.String()
}
