// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package table implements a simple column-ordered data frame: a header with
// column names and a list of rows, each rendering to a list of strings in the
// header order.
package table

import (
	"encoding/json"
	"strconv"

	"github.com/stockparfait/errors"
)

// Row interface that a table row representation must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Table container.
//
// A typical use:
//
//	type MyRow struct {
//	  Name string
//	  Age int
//	}
//
//	func (r MyRow) CSV() []string {
//	  return []string{r.Name, fmt.Sprintf("%d", r.Age)}
//	}
//	t := NewTable("Name", "Age")
//	t.AddRow(MyRow{"John", 25}, MyRow{"Jane", 24})
//
// Tables of generic records are better created with FromRecords.
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table instance with optional column headers.  It is
// expected that, when present, the number of column headers is the same as the
// number of elements in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Len is the number of rows in the table.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Record is a row of cells already rendered as strings.
type Record []string

var _ Row = Record{}

func (r Record) CSV() []string { return r }

// FromRecords creates a Table with the given columns, one row per record. Cell
// i of a row is the record's value for columns[i] rendered by Cell. Record
// fields not listed in columns are ignored, and missing fields become empty
// cells.
func FromRecords[R ~map[string]any](records []R, columns ...string) *Table {
	t := NewTable(columns...)
	t.Rows = make([]Row, len(records))
	for i, rec := range records {
		row := make(Record, len(columns))
		for j, c := range columns {
			row[j] = Cell(rec[c])
		}
		t.Rows[i] = row
	}
	return t
}

// Cell renders a JSON-decoded value as a string: nil is empty, strings are
// verbatim, numbers use the shortest representation, and anything else is
// compact JSON.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// ColumnIndex returns the position of the named column in the header.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, errors.Reason("no such column: '%s'", name)
}

// Column returns all the cells of the named column. Rows too short to have the
// column contribute empty cells.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		if cells := r.CSV(); idx < len(cells) {
			res[i] = cells[idx]
		}
	}
	return res, nil
}
