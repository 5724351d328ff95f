// Copyright 2024 The mlops-zoomcamp-2024 Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package table contains an in-memory, column-major table with named,
// typed columns and nullable cells.
//
// Tables are not safe for concurrent mutation. Operations that derive a
// table, such as Filter and WithColumn, return a new table and leave the
// receiver untouched.
package table

import (
	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
)

var (
	// ErrMissingColumn is returned when a column is looked up by a name the
	// table does not have.
	ErrMissingColumn = errors.New("missing column")
	// ErrTypeMismatch is returned when a cell or column has the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrShape is returned for malformed schemas and rows of the wrong arity.
	ErrShape = errors.New("bad table shape")
)

// Field names and types a column.
type Field struct {
	Name string
	Kind Kind
}

// Column is a named, typed column of cells.
type Column struct {
	Field
	Values []Value
}

// Record is one row projected to a set of columns, keyed by column name.
// Missing cells are nil.
type Record map[string]any

// Table is a set of equally long columns.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New returns an empty table with the given columns. Column names must be
// unique and non-empty.
func New(fields ...Field) (*Table, error) {
	t := &Table{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if err := t.addColumn(&Column{Field: f}); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for fixed schemas.
func MustNew(fields ...Field) *Table {
	t, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) addColumn(c *Column) error {
	if c.Name == "" {
		return errors.Errorf("%w: empty column name", ErrShape)
	}
	if c.Kind == Invalid {
		return errors.Errorf("%w: column %q has no kind", ErrShape, c.Name)
	}
	if _, ok := t.index[c.Name]; ok {
		return errors.Errorf("%w: duplicate column %q", ErrShape, c.Name)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// Fields returns the table schema in column order.
func (t *Table) Fields() []Field {
	ret := make([]Field, len(t.cols))
	for i, c := range t.cols {
		ret[i] = c.Field
	}
	return ret
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The returned column is owned by the table
// and must not be modified.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return t.cols[i], nil
}

// AppendRow appends one row. Values are given in column order and must
// match the column kinds; nulls of any kind are accepted and stored as nulls
// of the column kind.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.cols) {
		return errors.Errorf("%w: row has %d values, table has %d columns", ErrShape, len(values), len(t.cols))
	}
	for i, v := range values {
		if !v.IsNull() && v.Kind() != t.cols[i].Kind {
			return errors.Errorf("%w: column %q is %v, got %v", ErrTypeMismatch, t.cols[i].Name, t.cols[i].Kind, v.Kind())
		}
	}
	for i, v := range values {
		if v.IsNull() {
			v = Null(t.cols[i].Kind)
		}
		t.cols[i].Values = append(t.cols[i].Values, v)
	}
	t.rows++
	return nil
}

// Append appends all rows of other, which must have the same schema.
func (t *Table) Append(other *Table) error {
	if len(other.cols) != len(t.cols) {
		return errors.Errorf("%w: appending %d columns to %d", ErrShape, len(other.cols), len(t.cols))
	}
	for i, c := range other.cols {
		if c.Field != t.cols[i].Field {
			return errors.Errorf("%w: column %d is %v %v, got %v %v", ErrTypeMismatch, i, t.cols[i].Name, t.cols[i].Kind, c.Name, c.Kind)
		}
	}
	for i, c := range other.cols {
		t.cols[i].Values = append(t.cols[i].Values, c.Values...)
	}
	t.rows += other.rows
	return nil
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	ret := make([]Value, len(t.cols))
	for j, c := range t.cols {
		ret[j] = c.Values[i]
	}
	return ret
}

// Filter returns a new table holding the rows for which keep returns true,
// in their original order.
func (t *Table) Filter(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}

	ret := t.shell()
	for j, c := range t.cols {
		values := make([]Value, len(rows))
		for k, i := range rows {
			values[k] = c.Values[i]
		}
		ret.cols[j].Values = values
	}
	ret.rows = len(rows)
	return ret
}

// WithColumn returns a new table with the given column added at the end, or
// replacing the column of the same name in place. values must have one cell
// per row, each either null or of the field's kind.
func (t *Table) WithColumn(f Field, values []Value) (*Table, error) {
	if len(values) != t.rows {
		return nil, errors.Errorf("%w: column %q has %d values, table has %d rows", ErrShape, f.Name, len(values), t.rows)
	}
	col := &Column{Field: f, Values: make([]Value, len(values))}
	for i, v := range values {
		switch {
		case v.IsNull():
			col.Values[i] = Null(f.Kind)
		case v.Kind() != f.Kind:
			return nil, errors.Errorf("%w: column %q is %v, row %d is %v", ErrTypeMismatch, f.Name, f.Kind, i, v.Kind())
		default:
			col.Values[i] = v
		}
	}

	ret := t.shell()
	for j, c := range t.cols {
		ret.cols[j].Values = append([]Value(nil), c.Values...)
	}
	ret.rows = t.rows
	if i, ok := ret.index[f.Name]; ok {
		ret.cols[i] = col
		return ret, nil
	}
	if err := ret.addColumn(col); err != nil {
		return nil, err
	}
	return ret, nil
}

// Records projects the rows onto the named columns, in row order. With no
// names, all columns are projected.
func (t *Table) Records(names ...string) ([]Record, error) {
	if len(names) == 0 {
		for _, c := range t.cols {
			names = append(names, c.Name)
		}
	}
	cols := make([]*Column, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	ret := make([]Record, t.rows)
	for i := range ret {
		r := make(Record, len(cols))
		for _, c := range cols {
			r[c.Name] = c.Values[i].Interface()
		}
		ret[i] = r
	}
	return ret, nil
}

// shell returns an empty copy of the schema.
func (t *Table) shell() *Table {
	ret := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
	}
	for j, c := range t.cols {
		ret.cols[j] = &Column{Field: c.Field}
		ret.index[c.Name] = j
	}
	return ret
}
