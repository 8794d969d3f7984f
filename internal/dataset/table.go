// Package dataset loads delimited tabular files into memory and provides the
// column operations the training pipeline and the analysis pages need.
package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/gradebook/internal/common"
)

// Table is an ordered set of records sharing one header. Cells are kept as
// raw strings; typed views are produced on demand.
type Table struct {
	index   map[string]int
	Columns []string
	Rows    [][]string
}

// NewTable builds a table, rejecting empty or duplicate column names and rows
// whose width differs from the header.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, common.NewDataError("new table", fmt.Errorf("column %d has an empty name", i))
		}
		if _, dup := index[name]; dup {
			return nil, common.NewDataError("new table", fmt.Errorf("duplicate column %q", name))
		}
		index[name] = i
		columns[i] = name
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, common.NewDataError("new table",
				fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(columns)))
		}
	}

	return &Table{
		Columns: columns,
		Rows:    rows,
		index:   index,
	}, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, common.NewDataError("lookup column", fmt.Errorf("%w: %q", common.ErrUnknownColumn, name))
	}
	return i, nil
}

// Column returns a copy of the raw values of one column.
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Float returns one column parsed as float64 values.
func (t *Table) Float(name string) ([]float64, error) {
	raw, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for r, v := range raw {
		f, err := ParseFloat(v)
		if err != nil {
			return nil, common.NewDataError("parse column",
				fmt.Errorf("column %q row %d: %w", name, r+1, err))
		}
		out[r] = f
	}
	return out, nil
}

// Select returns a new table holding only the named columns, in that order.
func (t *Table) Select(columns ...string) (*Table, error) {
	positions := make([]int, len(columns))
	for i, name := range columns {
		p, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		positions[i] = p
	}

	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		out := make([]string, len(positions))
		for i, p := range positions {
			out[i] = row[p]
		}
		rows[r] = out
	}

	return NewTable(append([]string(nil), columns...), rows)
}

// Filter returns the records for which keep returns true. The record is
// passed as a column-name lookup.
func (t *Table) Filter(keep func(Record) bool) *Table {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if keep(Record{table: t, values: row}) {
			rows = append(rows, row)
		}
	}
	return t.withRows(rows)
}

// Record returns the i-th record.
func (t *Table) Record(i int) Record {
	return Record{table: t, values: t.Rows[i]}
}

// Distinct returns the distinct values of a column in order of first appearance.
func (t *Table) Distinct(name string) ([]string, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (t *Table) withRows(rows [][]string) *Table {
	return &Table{
		Columns: t.Columns,
		Rows:    rows,
		index:   t.index,
	}
}

// Record is a read-only view of one row.
type Record struct {
	table  *Table
	values []string
}

// Get returns the raw value of a column, or "" when the column does not exist.
func (r Record) Get(column string) string {
	i, ok := r.table.index[column]
	if !ok {
		return ""
	}
	return r.values[i]
}

// Map returns the record as a column -> value map.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(r.values))
	for i, name := range r.table.Columns {
		out[name] = r.values[i]
	}
	return out
}

// ParseFloat parses a numeric cell, tolerating surrounding whitespace.
func ParseFloat(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrNotNumeric, v)
	}
	return f, nil
}

// AddColumn returns a table with one more column whose value for each record
// is computed by fn.
func (t *Table) AddColumn(name string, fn func(Record) (string, error)) (*Table, error) {
	columns := append(append([]string(nil), t.Columns...), name)
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		v, err := fn(Record{table: t, values: row})
		if err != nil {
			return nil, common.NewDataError("add column", fmt.Errorf("column %q row %d: %w", name, r+1, err))
		}
		rows[r] = append(append(make([]string, 0, len(row)+1), row...), v)
	}
	return NewTable(columns, rows)
}
