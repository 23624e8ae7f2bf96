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

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name WriteXLSX uses when none is given.
const DefaultSheet = "Sheet1"

// Params are parameters for pretty-printing or exporting Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

// header returns the header to write, or nil.
func (t *Table) header(p Params) []string {
	if p.NoHeader || len(t.Header) == 0 {
		return nil
	}
	return t.Header
}

// rows returns the rows to write, rendered as strings.
func (t *Table) rows(p Params) [][]string {
	n := len(t.Rows)
	if p.Rows > 0 && p.Rows < n {
		n = p.Rows
	}
	res := make([][]string, n)
	for i := 0; i < n; i++ {
		res[i] = t.Rows[i].CSV()
	}
	return res
}

// WriteCSV writes the entire table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if h := t.header(p); h != nil {
		if err := cw.Write(h); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range t.rows(p) {
		if err := cw.Write(r); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// WriteText writes the table as a text formatted for ease of reading.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	header := t.header(p)
	rows := t.rows(p)
	var widths []int
	update := func(row []string) error {
		if len(row) == 0 {
			return errors.Reason("row size = 0")
		}
		if len(widths) == 0 {
			widths = make([]int, len(row))
		}
		if len(row) != len(widths) {
			return errors.Reason("row size [%d] != expected size [%d]",
				len(row), len(widths))
		}
		for i := range widths {
			if n := len([]rune(row[i])); widths[i] < n {
				widths[i] = n
				if p.MaxColWidth > 0 && widths[i] > p.MaxColWidth {
					widths[i] = p.MaxColWidth
				}
			}
		}
		return nil
	}

	write := func(row []string) error {
		trimmed := make([]string, len(row))
		for i, s := range row {
			r := []rune(s)
			if len(r) > widths[i] {
				s = string(r[:widths[i]-2]) + ".."
			}
			pad := widths[i] - len([]rune(s))
			trimmed[i] = strings.Repeat(" ", pad) + s
		}
		_, err := fmt.Fprintf(w, "%s\n", strings.Join(trimmed, " | "))
		return err
	}

	if header != nil {
		if err := update(header); err != nil {
			return errors.Annotate(err, "failed to update header widths")
		}
	}
	for _, r := range rows {
		if err := update(r); err != nil {
			return errors.Annotate(err, "failed to update row widths")
		}
	}

	if header != nil {
		if err := write(header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
		dashes := make([]string, len(widths))
		for i, n := range widths {
			dashes[i] = strings.Repeat("-", n)
		}
		if err := write(dashes); err != nil {
			return errors.Annotate(err, "failed to write header separator")
		}
	}
	for _, r := range rows {
		if err := write(r); err != nil {
			return errors.Annotate(err, "failed to write row")
		}
	}
	return nil
}

// WriteXLSX writes the table to w as an Excel workbook with a single sheet.
// MaxColWidth is ignored.
func (t *Table) WriteXLSX(w io.Writer, sheet string, p Params) error {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return errors.Annotate(err, "failed to name sheet '%s'", sheet)
		}
	}
	line := 1
	add := func(row []string) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for i, s := range row {
			values[i] = s
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		line++
		return nil
	}
	if h := t.header(p); h != nil {
		if err := add(h); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for _, r := range t.rows(p) {
		if err := add(r); err != nil {
			return errors.Annotate(err, "failed to write row %d", line)
		}
	}
	if err := f.Write(w); err != nil {
		return errors.Annotate(err, "failed to write workbook")
	}
	return nil
}
